// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tddflow/pkg/types"
)

func TestSystemPromptFor(t *testing.T) {
	tctx := types.TaskContext{SystemPrompt: "context prompt"}
	bare := &Persona{Role: "Reviewer", Expertise: []string{"go", "testing"}}

	tests := []struct {
		name    string
		persona *Persona
		want    string
	}{
		{"nil persona uses context prompt", nil, "context prompt"},
		{"persona prompt wins", &PlanningAnalyst, PlanningAnalyst.SystemPrompt},
		{"persona without prompt describes role", bare, "You are a Reviewer with expertise in: go, testing."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SystemPromptFor(tt.persona, tctx))
		})
	}
}

func TestBuiltinPersonas(t *testing.T) {
	for _, p := range []Persona{PlanningAnalyst, ImplementationEngineer, QualityReviewer} {
		assert.NotEmpty(t, p.Role)
		assert.NotEmpty(t, p.Expertise)
		assert.NotEmpty(t, p.QualityStandards)
		assert.NotEmpty(t, p.SystemPrompt)
	}
	assert.Equal(t, "Senior Software Engineer", ImplementationEngineer.Role)
}
