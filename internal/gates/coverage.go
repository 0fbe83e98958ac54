// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package gates

import (
	"context"
	"math"

	"tddflow/pkg/types"
)

// minTestRatio is the lowest acceptable test-to-implementation file ratio.
const minTestRatio = 0.5

// TestCoverageGate compares the number of test files with implementation files.
type TestCoverageGate struct{}

// NewTestCoverageGate creates the test-coverage gate.
func NewTestCoverageGate() *TestCoverageGate { return &TestCoverageGate{} }

func (*TestCoverageGate) Name() string    { return GateTestCoverage }
func (*TestCoverageGate) Weight() float64 { return 0.8 }
func (*TestCoverageGate) Required() bool  { return true }

// Validate implements Gate.
func (*TestCoverageGate) Validate(_ context.Context, artifact types.Artifact, _ types.TaskContext) (types.QualityResult, error) {
	res := newResult()
	tests := len(artifact.TestFiles)
	impl := len(artifact.Files)

	if tests == 0 {
		res.Issues = append(res.Issues, "No test files found")
		res.Suggestions = append(res.Suggestions, "Create test files for your implementation")
	} else if impl > 0 && float64(tests)/float64(impl) < minTestRatio {
		res.Issues = append(res.Issues, "Low test-to-implementation ratio")
		res.Suggestions = append(res.Suggestions, "Consider adding more comprehensive tests")
	}

	switch {
	case impl > 0:
		res.Score = math.Min(1, float64(tests)/float64(impl))
	case tests > 0:
		res.Score = 1
	}

	res.Passed = len(res.Issues) == 0
	res.Metadata = map[string]any{"test_files": tests, "implementation_files": impl}
	return res, nil
}
