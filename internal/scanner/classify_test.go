// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package scanner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tddflow/pkg/types"
)

func asset(t types.AssetType, name, desc string) types.AssetReference {
	return types.AssetReference{Type: t, Name: name, Description: desc, FilePath: "src/" + name + ".ts", LineNumber: 1}
}

func TestFilterRelevant(t *testing.T) {
	task := "Add a user authentication service"
	assets := []types.AssetReference{
		asset(types.AssetClass, "AuthenticationService", "handles login"),
		asset(types.AssetFunction, "formatDate", "formats dates"),
		asset(types.AssetFunction, "x", "add a user"),
	}

	relevant := FilterRelevant(assets, ExtractKeywords(task), task)

	require.Len(t, relevant, 2)
	assert.Equal(t, "AuthenticationService", relevant[0].Name)
	assert.Equal(t, "x", relevant[1].Name)
}

func TestFilterRelevant_SignatureCounts(t *testing.T) {
	a := types.AssetReference{Type: types.AssetFunction, Name: "f", Signature: "func f(cache *Cache)"}
	relevant := FilterRelevant([]types.AssetReference{a}, []string{"cache"}, "implement cache eviction")
	assert.Len(t, relevant, 1)
}

func TestReuseOpportunities(t *testing.T) {
	task := "validate email address"
	assets := []types.AssetReference{
		asset(types.AssetFunction, "validate", "email address format"),
		asset(types.AssetFunction, "sendMail", "delivers messages over smtp"),
	}

	reuse := ReuseOpportunities(assets, task)

	require.Len(t, reuse, 1)
	assert.Equal(t, "validate", reuse[0].Name)
}

func TestConflictRisks(t *testing.T) {
	tests := []struct {
		name  string
		task  string
		asset types.AssetReference
		want  bool
	}{
		{"name contains keyword", "implement parser", asset(types.AssetFunction, "ConfigParser", ""), true},
		{"keyword contains name", "implement tokenizer", asset(types.AssetFunction, "token", ""), true},
		{"class category hint", "build a session manager", asset(types.AssetClass, "Cache", ""), true},
		{"component category hint", "render a widget", asset(types.AssetComponent, "Panel", ""), true},
		{"interface category hint", "design the payments contract", asset(types.AssetInterface, "Ledger", ""), true},
		{"function category hint", "write a utility", asset(types.AssetFunction, "Zed", ""), true},
		{"no overlap", "compute checksum", asset(types.AssetConstant, "Timeout", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConflictRisks([]types.AssetReference{tt.asset}, tt.task)
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestRecommendations(t *testing.T) {
	t.Run("nothing relevant", func(t *testing.T) {
		recs := Recommendations(nil, nil, nil)
		assert.Equal(t, []string{RecommendationClear, RecommendationMandatory}, recs)
	})

	t.Run("reuse and conflicts", func(t *testing.T) {
		a := asset(types.AssetFunction, "sum", "")
		recs := Recommendations([]types.AssetReference{a}, []types.AssetReference{a}, []types.AssetReference{a})
		require.Len(t, recs, 3)
		assert.Equal(t, "⇔ REUSE OPPORTUNITIES: Consider reusing existing assets: sum (src/sum.ts)", recs[0])
		assert.Equal(t, "⚠ CONFLICT RISKS: Potential conflicts with existing: sum (src/sum.ts)", recs[1])
		assert.Equal(t, RecommendationMandatory, recs[2])
	})

	t.Run("architecture review above five", func(t *testing.T) {
		var relevant []types.AssetReference
		for i := 0; i < 6; i++ {
			relevant = append(relevant, asset(types.AssetFunction, fmt.Sprintf("f%d", i), ""))
		}
		recs := Recommendations(relevant, nil, nil)
		assert.Equal(t, []string{
			"📊 ARCHITECTURE REVIEW: 6 related assets found - consider architectural consistency",
			RecommendationMandatory,
		}, recs)
	})
}

func TestSimilarityMeasures(t *testing.T) {
	assert.InDelta(t, 0.5, jaccard("a b c", "b c d"), 1e-9)
	assert.Zero(t, jaccard("", ""))
	assert.InDelta(t, 2.0/3.0, similarity("a b", "a b c"), 1e-9)
	assert.InDelta(t, 1.0, similarity("a a", "a"), 1e-9)
	assert.Zero(t, similarity("", ""))
}
