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

const (
	maxFunctionLines         = 50
	minLinesForErrorHandling = 10

	longFunctionPenalty  = 0.9
	errorHandlingPenalty = 0.95
)

// CodeQualityGate applies line-based heuristics: long functions and files
// without any error handling lower the score multiplicatively.
type CodeQualityGate struct{}

// NewCodeQualityGate creates the code-quality gate.
func NewCodeQualityGate() *CodeQualityGate { return &CodeQualityGate{} }

func (*CodeQualityGate) Name() string    { return GateCodeQuality }
func (*CodeQualityGate) Weight() float64 { return 0.6 }
func (*CodeQualityGate) Required() bool  { return false }

// Validate implements Gate.
func (*CodeQualityGate) Validate(ctx context.Context, artifact types.Artifact, _ types.TaskContext) (types.QualityResult, error) {
	res := newResult()
	score := 1.0

	for _, f := range artifact.Files {
		if err := ctx.Err(); err != nil {
			return types.QualityResult{}, err
		}

		long := 0
		for _, n := range functionBlockLengths(f.Content) {
			if n > maxFunctionLines {
				long++
			}
		}
		if long > 0 {
			res.Issues = append(res.Issues, fmt.Sprintf("%s: Contains %d long functions (>%d lines)", f.Path, long, maxFunctionLines))
			res.Suggestions = append(res.Suggestions, "Consider breaking down large functions in "+f.Path)
			score *= longFunctionPenalty
		}

		if codeLineCount(f.Content) > minLinesForErrorHandling && !hasErrorHandling(f.Content) {
			res.Issues = append(res.Issues, f.Path+": Missing error handling")
			res.Suggestions = append(res.Suggestions, "Add appropriate error handling to "+f.Path)
			score *= errorHandlingPenalty
		}
	}

	res.Score = score
	res.Passed = len(res.Issues) == 0
	return res, nil
}

// functionBlockLengths finds function starts and measures each block by
// tracking brace depth until it returns to zero.
func functionBlockLengths(content string) []int {
	lines := strings.Split(content, "\n")
	var lengths []int

	for i, line := range lines {
		if !isFunctionStart(strings.TrimSpace(line)) {
			continue
		}
		end := i
		depth := 0
		for j := i; j < len(lines); j++ {
			depth += strings.Count(lines[j], "{") - strings.Count(lines[j], "}")
			if depth == 0 && j > i {
				end = j
				break
			}
		}
		lengths = append(lengths, end-i+1)
	}
	return lengths
}

func isFunctionStart(trimmed string) bool {
	return strings.Contains(trimmed, "function ") ||
		strings.Contains(trimmed, " => ") ||
		strings.HasPrefix(trimmed, "func ")
}

func codeLineCount(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "//") || strings.HasPrefix(t, "#") {
			continue
		}
		n++
	}
	return n
}

func hasErrorHandling(content string) bool {
	return strings.Contains(content, "try") ||
		strings.Contains(content, "catch") ||
		strings.Contains(content, "err != nil") ||
		strings.Contains(content, "except")
}
