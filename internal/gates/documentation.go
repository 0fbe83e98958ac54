// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package gates

import (
	"context"
	"path/filepath"
	"strings"

	"tddflow/pkg/types"
)

const undocumentedPenalty = 0.8

// DocumentationGate flags files without any comment or docstring.
type DocumentationGate struct{}

// NewDocumentationGate creates the documentation gate.
func NewDocumentationGate() *DocumentationGate { return &DocumentationGate{} }

func (*DocumentationGate) Name() string    { return GateDocumentation }
func (*DocumentationGate) Weight() float64 { return 0.4 }
func (*DocumentationGate) Required() bool  { return false }

// Validate implements Gate.
func (*DocumentationGate) Validate(_ context.Context, artifact types.Artifact, _ types.TaskContext) (types.QualityResult, error) {
	res := newResult()
	score := 1.0

	for _, f := range artifact.Files {
		if isDocumented(f) {
			continue
		}
		res.Issues = append(res.Issues, f.Path+": No documentation found")
		res.Suggestions = append(res.Suggestions, "Add comments and documentation to "+f.Path)
		score *= undocumentedPenalty
	}

	res.Score = score
	res.Passed = len(res.Issues) == 0
	return res, nil
}

func isDocumented(f types.FileContent) bool {
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".md", ".rst", ".txt":
		return true
	case ".py":
		if hasHashComment(f.Content) {
			return true
		}
	}
	return strings.Contains(f.Content, "//") ||
		strings.Contains(f.Content, "/*") ||
		strings.Contains(f.Content, `"""`)
}

func hasHashComment(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "#") && !strings.HasPrefix(t, "#!") {
			return true
		}
	}
	return false
}
