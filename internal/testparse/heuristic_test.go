// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package testparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicParser_Parse(t *testing.T) {
	tests := []struct {
		name         string
		out          Output
		wantTotal    int
		wantFailed   int
		wantFailures []string
	}{
		{
			name:      "passing run with count",
			out:       Output{Stdout: "Tests: 4 tests passed"},
			wantTotal: 4,
		},
		{
			name:      "passing run without count defaults to one",
			out:       Output{Stdout: "all good"},
			wantTotal: 1,
		},
		{
			name:         "failed in stdout uses generic message",
			out:          Output{Stdout: "2 tests failed"},
			wantTotal:    2,
			wantFailed:   2,
			wantFailures: []string{"Tests failed"},
		},
		{
			name:         "failed in stderr is reported verbatim",
			out:          Output{Stderr: "assertion failed: expected 3"},
			wantTotal:    1,
			wantFailed:   1,
			wantFailures: []string{"assertion failed: expected 3"},
		},
		{
			name:      "exit code is ignored",
			out:       Output{Stdout: "3 tests ok", ExitCode: 1},
			wantTotal: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := HeuristicParser{}.Parse(tt.out)
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Equal(t, tt.wantFailed, res.Failed)
			assert.Equal(t, tt.wantTotal-tt.wantFailed, res.Passed)
			assert.Equal(t, tt.wantFailures, res.Failures)
		})
	}
}

func TestForLanguage(t *testing.T) {
	assert.IsType(t, &GoTestParser{}, ForLanguage("Go"))
	assert.IsType(t, &GoTestParser{}, ForLanguage("golang"))
	assert.IsType(t, ExitCodeParser{}, ForLanguage("python"))
	assert.IsType(t, ExitCodeParser{}, ForLanguage("Rust"))
	assert.IsType(t, ExitCodeParser{}, ForLanguage("java"))
	assert.IsType(t, HeuristicParser{}, ForLanguage("typescript"))
	assert.IsType(t, HeuristicParser{}, ForLanguage(""))
}

func TestExitCodeParser_Parse(t *testing.T) {
	tests := []struct {
		name         string
		out          Output
		wantTotal    int
		wantFailed   int
		wantFailures []string
	}{
		{
			name:      "cargo passing run mentions zero failed",
			out:       Output{Stdout: "running 3 tests\ntest result: ok. 3 passed; 0 failed; 0 ignored"},
			wantTotal: 3,
		},
		{
			name:         "maven failure in upper case",
			out:          Output{Stdout: "[ERROR] Tests run: 2, Failures: 1\n[ERROR] BUILD FAILURE", ExitCode: 1},
			wantTotal:    1,
			wantFailed:   1,
			wantFailures: []string{"[ERROR] Tests run: 2, Failures: 1\n[ERROR] BUILD FAILURE"},
		},
		{
			name:         "stderr preferred",
			out:          Output{Stdout: "FAILED test_calc.py::test_add", Stderr: "ImportError: calc", ExitCode: 2},
			wantTotal:    1,
			wantFailed:   1,
			wantFailures: []string{"ImportError: calc"},
		},
		{
			name:         "silent failure",
			out:          Output{ExitCode: 1},
			wantTotal:    1,
			wantFailed:   1,
			wantFailures: []string{"Tests failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ExitCodeParser{}.Parse(tt.out)
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Equal(t, tt.wantFailed, res.Failed)
			assert.Equal(t, tt.wantTotal-tt.wantFailed, res.Passed)
			assert.Equal(t, tt.wantFailures, res.Failures)
		})
	}
}

func TestExitCodeParser_KeepsOutputTail(t *testing.T) {
	stdout := strings.Repeat("x", maxOutputTail) + "SUMMARY"
	res := ExitCodeParser{}.Parse(Output{Stdout: stdout, ExitCode: 1})
	require.Len(t, res.Failures, 1)
	assert.True(t, strings.HasSuffix(res.Failures[0], "SUMMARY"))
	assert.True(t, strings.HasPrefix(res.Failures[0], "..."))
	assert.Len(t, res.Failures[0], maxOutputTail+3)
}

func TestFormatFailures(t *testing.T) {
	res := HeuristicParser{}.Parse(Output{Stdout: "2 tests failed", Stderr: "boom failed"})
	assert.Equal(t, "2 tests failed. Errors: boom failed", FormatFailures(res))
}

func TestExecutionFailure(t *testing.T) {
	res := ExecutionFailure(errors.New("npm not found"))
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"npm not found"}, res.Failures)

	assert.Equal(t, []string{"Test execution failed"}, ExecutionFailure(nil).Failures)
}
