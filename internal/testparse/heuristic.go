// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package testparse

import (
	"regexp"
	"strconv"
	"strings"

	"tddflow/pkg/types"
)

var testCountRegex = regexp.MustCompile(`(\d+) test`)

// HeuristicParser is the framework-agnostic fallback. A run is failed when the
// word "failed" appears anywhere in its output; the first "<n> test" phrase in
// stdout gives the test count (1 when absent). The exit code is not consulted,
// and the match is case-sensitive: "FAILED" alone does not count.
type HeuristicParser struct{}

// Parse implements Parser.
func (HeuristicParser) Parse(out Output) types.TestResults {
	failed := strings.Contains(out.Stderr, "failed") || strings.Contains(out.Stdout, "failed")
	count := extractTestCount(out.Stdout)

	res := types.TestResults{Total: count, Duration: out.Duration}
	if !failed {
		res.Passed = count
		return res
	}

	res.Failed = count
	if out.Stderr != "" {
		res.Failures = []string{out.Stderr}
	} else {
		res.Failures = []string{"Tests failed"}
	}
	return res
}

func extractTestCount(stdout string) int {
	m := testCountRegex.FindStringSubmatch(stdout)
	if len(m) < 2 {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return n
}
