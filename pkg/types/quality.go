// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

// FileContent is one file of an artifact.
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Artifact is the bundle of implementation and test files scored by the gates.
type Artifact struct {
	Files     []FileContent `json:"files"`
	TestFiles []FileContent `json:"test_files"`
}

// QualityResult is the output of one gate for one artifact.
type QualityResult struct {
	Passed      bool           `json:"passed"`
	Score       float64        `json:"score"`
	Issues      []string       `json:"issues"`
	Suggestions []string       `json:"suggestions"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// QualityGateReport aggregates every gate result for one phase.
type QualityGateReport struct {
	Phase string `json:"phase"`

	// OverallScore is the weight-averaged gate score in [0,1].
	OverallScore float64 `json:"overall_score"`

	// OverallPassed is true iff every required gate passed. The score does not factor in.
	OverallPassed bool `json:"overall_passed"`

	GateResults     map[string]QualityResult `json:"gate_results"`
	Recommendations []string                 `json:"recommendations"`
}
