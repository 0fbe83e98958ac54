// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package testparse

import (
	"strings"

	"tddflow/pkg/types"
)

// maxOutputTail bounds the stdout excerpt kept as a failure message.
const maxOutputTail = 2000

// ExitCodeParser fails a run on a non-zero exit status. Passing cargo output
// contains "0 failed" and Maven reports "FAILURE", so HeuristicParser misreads both.
type ExitCodeParser struct{}

// Parse implements Parser.
func (ExitCodeParser) Parse(out Output) types.TestResults {
	count := extractTestCount(out.Stdout)

	res := types.TestResults{Total: count, Duration: out.Duration}
	if out.ExitCode == 0 {
		res.Passed = count
		return res
	}

	res.Failed = count
	switch {
	case strings.TrimSpace(out.Stderr) != "":
		res.Failures = []string{strings.TrimSpace(out.Stderr)}
	case strings.TrimSpace(out.Stdout) != "":
		res.Failures = []string{tail(strings.TrimSpace(out.Stdout), maxOutputTail)}
	default:
		res.Failures = []string{"Tests failed"}
	}
	return res
}

// tail keeps the last n bytes of s, where runners print their summary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
