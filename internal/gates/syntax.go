// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package gates

import (
	"context"
	"fmt"
	"strings"

	"tddflow/pkg/types"
)

// SyntaxGate checks every implementation file for a plausible structure:
// non-empty content and balanced delimiters. It is not a parser.
type SyntaxGate struct{}

// NewSyntaxGate creates the syntax-validation gate.
func NewSyntaxGate() *SyntaxGate { return &SyntaxGate{} }

func (*SyntaxGate) Name() string    { return GateSyntax }
func (*SyntaxGate) Weight() float64 { return 1.0 }
func (*SyntaxGate) Required() bool  { return true }

// Validate implements Gate. Score is valid files over total files, 0 for an
// artifact without implementation files.
func (*SyntaxGate) Validate(_ context.Context, artifact types.Artifact, tctx types.TaskContext) (types.QualityResult, error) {
	res := newResult()
	valid := 0

	for _, f := range artifact.Files {
		switch {
		case f.Path == "":
			res.Issues = append(res.Issues, "Invalid file structure: unknown")
		case strings.TrimSpace(f.Content) == "":
			res.Issues = append(res.Issues, "Empty file: "+f.Path)
		case !hasValidStructure(f.Content, tctx.Language):
			res.Issues = append(res.Issues, "Invalid structure in: "+f.Path)
			res.Suggestions = append(res.Suggestions, fmt.Sprintf("Review %s syntax in %s", languageOrCode(tctx.Language), f.Path))
		default:
			valid++
		}
	}

	if total := len(artifact.Files); total > 0 {
		res.Score = float64(valid) / float64(total)
	}
	res.Passed = len(res.Issues) == 0
	res.Metadata = map[string]any{"valid_files": valid, "total_files": len(artifact.Files)}
	return res, nil
}

func hasValidStructure(content, language string) bool {
	switch strings.ToLower(language) {
	case "python":
		return !strings.Contains(content, "IndentationError") && !strings.Contains(content, "SyntaxError")
	case "javascript", "typescript":
		return !strings.Contains(content, "SyntaxError") && balancedDelimiters(content)
	default:
		return balancedDelimiters(content)
	}
}

// balancedDelimiters counts each delimiter pair independently. Delimiters
// inside strings and comments are counted too.
func balancedDelimiters(content string) bool {
	var braces, brackets, parens int
	for _, r := range content {
		switch r {
		case '{':
			braces++
		case '}':
			braces--
		case '[':
			brackets++
		case ']':
			brackets--
		case '(':
			parens++
		case ')':
			parens--
		}
	}
	return braces == 0 && brackets == 0 && parens == 0
}

func languageOrCode(language string) string {
	if language == "" {
		return "code"
	}
	return language
}

func newResult() types.QualityResult {
	return types.QualityResult{Issues: []string{}, Suggestions: []string{}}
}
