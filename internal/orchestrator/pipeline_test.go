// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tddflow/pkg/types"
)

func TestDefaultPhasePlan(t *testing.T) {
	assert.Equal(t, []types.PhaseName{
		types.PhaseScan,
		types.PhasePlanTest,
		types.PhaseImplementFix,
		types.PhaseRefactorDocument,
	}, DefaultPhasePlan().Order())
}

func TestNewPhasePlan(t *testing.T) {
	tests := []struct {
		name    string
		steps   []Step
		want    []types.PhaseName
		wantErr string
	}{
		{
			name:  "declared out of order",
			steps: []Step{{Name: "c", After: []types.PhaseName{"b"}}, {Name: "b", After: []types.PhaseName{"a"}}, {Name: "a"}},
			want:  []types.PhaseName{"a", "b", "c"},
		},
		{
			name:  "no dependencies keeps declaration order",
			steps: []Step{{Name: "x"}, {Name: "y"}},
			want:  []types.PhaseName{"x", "y"},
		},
		{
			name:  "independent step runs first",
			steps: []Step{{Name: "a"}, {Name: "b", After: []types.PhaseName{"a"}}, {Name: "lint"}},
			want:  []types.PhaseName{"lint", "a", "b"},
		},
		{
			name:    "cycle",
			steps:   []Step{{Name: "a", After: []types.PhaseName{"b"}}, {Name: "b", After: []types.PhaseName{"a"}}},
			wantErr: "cycle detected",
		},
		{
			name:    "unknown dependency",
			steps:   []Step{{Name: "a", After: []types.PhaseName{"missing"}}},
			wantErr: "unknown phase",
		},
		{
			name:    "duplicate",
			steps:   []Step{{Name: "a"}, {Name: "a"}},
			wantErr: "duplicate phase",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewPhasePlan(tt.steps)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Order())
		})
	}
}

func TestPhasePlan_OrderIsACopy(t *testing.T) {
	plan := DefaultPhasePlan()
	order := plan.Order()
	order[0] = "mutated"
	assert.Equal(t, types.PhaseScan, plan.Order()[0])
}
