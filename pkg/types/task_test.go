// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskContext_Validate(t *testing.T) {
	tests := []struct {
		name        string
		ctx         TaskContext
		wantErr     bool
		errContains string
	}{
		{
			name: "valid context",
			ctx: TaskContext{
				TaskDescription: "Create a function that adds two integers",
				ProjectPath:     "/tmp/project",
				MaxTurns:        3,
			},
		},
		{
			name: "description too short",
			ctx: TaskContext{
				TaskDescription: "too short",
				ProjectPath:     "/tmp/project",
				MaxTurns:        3,
			},
			wantErr:     true,
			errContains: "at least 10 characters",
		},
		{
			name: "description too long",
			ctx: TaskContext{
				TaskDescription: strings.Repeat("a", MaxTaskDescriptionLength+1),
				ProjectPath:     "/tmp/project",
				MaxTurns:        3,
			},
			wantErr:     true,
			errContains: "too long",
		},
		{
			name: "missing project path",
			ctx: TaskContext{
				TaskDescription: "Create a function that adds two integers",
				MaxTurns:        3,
			},
			wantErr:     true,
			errContains: "project path is required",
		},
		{
			name: "max turns out of range",
			ctx: TaskContext{
				TaskDescription: "Create a function that adds two integers",
				ProjectPath:     "/tmp/project",
				MaxTurns:        11,
			},
			wantErr:     true,
			errContains: "max turns must be between 1 and 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ctx.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestTaskContext_WithDefaults(t *testing.T) {
	ctx := TaskContext{TaskDescription: "Create a function that adds", ProjectPath: "."}.WithDefaults()
	assert.Equal(t, DefaultMaxTurns, ctx.MaxTurns)
	assert.NoError(t, ctx.Validate())

	kept := TaskContext{MaxTurns: 7}.WithDefaults()
	assert.Equal(t, 7, kept.MaxTurns)
}

func TestValidationError_ListsAllFields(t *testing.T) {
	err := TaskContext{}.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 3)
}

func TestWorkflowResult_Metadata(t *testing.T) {
	scan := &ScanResult{ScanID: "scan_1"}
	wf := &WorkflowResult{
		Scan:                scan,
		OverallQualityScore: 0.5,
		QualitySummary:      "Quality Score: 50.0% | Gates Passed: 1/2",
	}

	md := wf.Metadata()
	assert.Same(t, scan, md["codebase_scan"])
	assert.Equal(t, 0.5, md["overall_quality_score"])
	assert.Equal(t, wf.QualitySummary, md["quality_summary"])

	wf.Phases = append(wf.Phases, NewPhaseResult(PhasePlanTest).Finish())
	assert.NotNil(t, wf.Phase(PhasePlanTest))
	assert.Nil(t, wf.Phase(PhaseImplementFix))
	assert.Equal(t, PhasePlanTest, wf.LastPhase().Name)
}
