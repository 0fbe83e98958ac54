// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package testparse turns raw test command output into structured results
// that the implement/fix retry loop can reason about.
package testparse

import (
	"fmt"
	"strings"
	"time"

	"tddflow/pkg/types"
)

// Output is the raw result of one test command invocation.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Parser converts test command output into TestResults.
type Parser interface {
	Parse(out Output) types.TestResults
}

// ForLanguage returns the parser best suited for the project language.
func ForLanguage(language string) Parser {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "go", "golang":
		return NewGoTestParser()
	case "python", "py", "rust", "java":
		return ExitCodeParser{}
	default:
		return HeuristicParser{}
	}
}

// Feedbacker is implemented by parsers that describe failures in more detail
// than FormatFailures.
type Feedbacker interface {
	Feedback(out Output, r types.TestResults) string
}

// FormatFailures renders results as retry feedback for the next attempt.
func FormatFailures(r types.TestResults) string {
	return fmt.Sprintf("%d tests failed. Errors: %s", r.Failed, strings.Join(r.Failures, ", "))
}

// Feedback renders retry feedback with p's own formatter when it has one.
func Feedback(p Parser, out Output, r types.TestResults) string {
	if f, ok := p.(Feedbacker); ok {
		return f.Feedback(out, r)
	}
	return FormatFailures(r)
}

// ExecutionFailure is the result recorded when the test command itself could not run.
func ExecutionFailure(err error) types.TestResults {
	msg := "Test execution failed"
	if err != nil {
		msg = err.Error()
	}
	return types.TestResults{Failed: 1, Failures: []string{msg}}
}
