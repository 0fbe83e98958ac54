// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package prompts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tddflow/internal/agent"
	"tddflow/pkg/types"
)

var testContext = types.TaskContext{
	TaskDescription: "Create a function that adds two integers",
	ProjectPath:     "/work/calc",
	Language:        "go",
	MaxTurns:        3,
}

func TestContextual(t *testing.T) {
	p := Contextual(agent.ImplementationEngineer, "Do the thing", testContext, "")

	assert.True(t, strings.HasPrefix(p, "You are a Senior Software Engineer with deep expertise in: clean code"))
	assert.Contains(t, p, "Task: Do the thing")
	assert.Contains(t, p, "- Language: go")
	assert.Contains(t, p, "- Framework: auto-detect")
	assert.Contains(t, p, "- Project Path: /work/calc")
	assert.NotContains(t, p, "Additional Context:")
}

func TestPlanAndTest_IncludesScanFindings(t *testing.T) {
	scan := &types.ScanResult{
		TotalFiles: 4,
		RelevantAssets: []types.AssetReference{
			{Type: types.AssetFunction, Name: "Sum", FilePath: "math.go", LineNumber: 3},
		},
		ReuseOpportunities: []types.AssetReference{
			{Type: types.AssetFunction, Name: "Sum", FilePath: "math.go", LineNumber: 3},
		},
		Recommendations: []string{"🎯 MANDATORY: acknowledge"},
	}

	p := PlanAndTest(testContext.TaskDescription, testContext, scan)

	assert.Contains(t, p, agent.PlanningAnalyst.Role)
	assert.Contains(t, p, "Task: Create a function that adds two integers")
	assert.Contains(t, p, "- Files scanned: 4")
	assert.Contains(t, p, "- function Sum (math.go:3)")
	assert.Contains(t, p, "🎯 MANDATORY: acknowledge")
	assert.NotContains(t, p, "Conflict risks")
	assert.Contains(t, p, "create the test files")
}

func TestPlanAndTest_CapsAssetList(t *testing.T) {
	scan := &types.ScanResult{}
	for i := 0; i < maxScanAssetsInPrompt+3; i++ {
		scan.ConflictRisks = append(scan.ConflictRisks, types.AssetReference{Type: types.AssetClass, Name: fmt.Sprintf("C%d", i)})
	}

	p := PlanAndTest(testContext.TaskDescription, testContext, scan)

	assert.Contains(t, p, "- ... and 3 more")
	assert.NotContains(t, p, "C10 ")
}

func TestImplementation(t *testing.T) {
	first := Implementation("1. write Add", "", testContext)
	assert.Contains(t, first, "Plan Context:\n1. write Add")
	assert.Contains(t, first, "No test run yet.")
	assert.Contains(t, first, "Task: Implement code to pass tests")

	retry := Implementation("1. write Add", "1 tests failed. Errors: add_test.go:9 want 3", testContext)
	assert.Contains(t, retry, "Test Results:\n1 tests failed. Errors: add_test.go:9 want 3")
}

func TestRefactor(t *testing.T) {
	p := Refactor("func Add(a, b int) int { return a + b }", testContext)
	assert.Contains(t, p, agent.QualityReviewer.Role)
	assert.Contains(t, p, "Review and improve the following implementation:\n\nfunc Add")
}

func TestImprovement(t *testing.T) {
	p := Improvement([]string{"syntax-validation: fix braces", "documentation: add comments"})

	assert.Equal(t, "Based on the quality analysis, please apply the following improvements:\n"+
		"- syntax-validation: fix braces\n"+
		"- documentation: add comments\n"+
		"\nFocus on:\n"+
		"- Fixing syntax issues\n"+
		"- Improving test coverage\n"+
		"- Adding necessary documentation\n"+
		"- Optimizing code structure", p)
}
