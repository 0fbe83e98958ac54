// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package scanner

import (
	"fmt"
	"strings"

	"tddflow/pkg/types"
)

// Matching thresholds.
const (
	relevanceJaccardThreshold = 0.1
	reuseSimilarityThreshold  = 0.3
	architectureReviewLimit   = 5
)

// Recommendation texts.
const (
	RecommendationClear     = "✓ CLEAR TO IMPLEMENT: No conflicting assets found for this task"
	RecommendationMandatory = "🎯 MANDATORY: Agent must acknowledge scan results before proceeding with implementation"
	RecommendationDegraded  = "⚠ Codebase scan failed - manually verify no existing implementations"
)

// categoryHints maps an asset type to task words that signal the task would
// create an asset of the same category.
var categoryHints = map[types.AssetType][]string{
	types.AssetFunction:  {"function", "method", "utility"},
	types.AssetClass:     {"class", "service", "manager"},
	types.AssetComponent: {"component", "widget", "ui"},
	types.AssetInterface: {"interface", "contract", "api"},
}

// FilterRelevant keeps assets whose text contains a task keyword or whose
// word set overlaps the task by Jaccard similarity above 0.1.
func FilterRelevant(assets []types.AssetReference, keywords []string, task string) []types.AssetReference {
	taskLower := strings.ToLower(task)
	relevant := []types.AssetReference{}
	for _, a := range assets {
		text := strings.ToLower(a.Name + " " + a.Description + " " + a.Signature)
		if containsAny(text, keywords) || jaccard(text, taskLower) > relevanceJaccardThreshold {
			relevant = append(relevant, a)
		}
	}
	return relevant
}

// ReuseOpportunities keeps assets whose name and description share more than
// 30% of their words with the task.
func ReuseOpportunities(assets []types.AssetReference, task string) []types.AssetReference {
	taskLower := strings.ToLower(task)
	reuse := []types.AssetReference{}
	for _, a := range assets {
		purpose := strings.ToLower(a.Name + " " + a.Description)
		if similarity(purpose, taskLower) > reuseSimilarityThreshold {
			reuse = append(reuse, a)
		}
	}
	return reuse
}

// ConflictRisks keeps assets whose name contains or is contained by a task
// keyword, or whose category matches a category hint in the task.
func ConflictRisks(assets []types.AssetReference, task string) []types.AssetReference {
	keywords := ExtractKeywords(task)
	taskLower := strings.ToLower(task)
	conflicts := []types.AssetReference{}
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if nameOverlaps(name, keywords) || categoryOverlap(a.Type, taskLower) {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts
}

// Recommendations renders the scan findings for the agent. The mandatory
// acknowledgment entry is always last.
func Recommendations(relevant, reuse, conflicts []types.AssetReference) []string {
	var recs []string
	if len(reuse) > 0 {
		recs = append(recs, "⇔ REUSE OPPORTUNITIES: Consider reusing existing assets: "+describeAssets(reuse))
	}
	if len(conflicts) > 0 {
		recs = append(recs, "⚠ CONFLICT RISKS: Potential conflicts with existing: "+describeAssets(conflicts))
	}
	if len(relevant) > architectureReviewLimit {
		recs = append(recs, fmt.Sprintf("📊 ARCHITECTURE REVIEW: %d related assets found - consider architectural consistency", len(relevant)))
	}
	if len(relevant) == 0 {
		recs = append(recs, RecommendationClear)
	}
	return append(recs, RecommendationMandatory)
}

func describeAssets(assets []types.AssetReference) string {
	parts := make([]string, 0, len(assets))
	for _, a := range assets {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Name, a.FilePath))
	}
	return strings.Join(parts, ", ")
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func nameOverlaps(name string, keywords []string) bool {
	if name == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(name, k) || strings.Contains(k, name) {
			return true
		}
	}
	return false
}

func categoryOverlap(t types.AssetType, taskLower string) bool {
	return containsAny(taskLower, categoryHints[t])
}

// jaccard is the Jaccard index of the whitespace-separated word sets.
func jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// similarity counts words of a (with repetition) that appear in b, divided
// by the longer word list.
func similarity(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	longest := max(len(wordsA), len(wordsB))
	if longest == 0 {
		return 0
	}

	setB := wordSet(b)
	common := 0
	for _, w := range wordsA {
		if _, ok := setB[w]; ok {
			common++
		}
	}
	return float64(common) / float64(longest)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
