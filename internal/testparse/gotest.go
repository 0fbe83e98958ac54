// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package testparse

import (
	"fmt"
	"regexp"
	"strings"

	"tddflow/pkg/types"
)

// MaxMessageLength caps a single failure message fed back to the agent.
const MaxMessageLength = 500

const (
	buildFailureName   = "BUILD"
	unknownFailureName = "Unknown"
)

// Failure is one failed test, panic or build error in `go test -v` output.
type Failure struct {
	Test    string
	Package string
	Message string
	File    string
	Line    string
	Panic   bool
}

// String renders the failure as a single feedback entry.
func (f Failure) String() string {
	var b strings.Builder
	if f.Test == buildFailureName {
		fmt.Fprintf(&b, "build failed in package %s", f.Package)
	} else {
		b.WriteString(f.Test)
	}
	if f.Panic {
		b.WriteString(" [PANIC]")
	}
	if f.File != "" && f.Line != "" {
		fmt.Fprintf(&b, " (%s:%s)", f.File, f.Line)
	}
	if f.Message != "" {
		msg := f.Message
		if len(msg) > MaxMessageLength {
			msg = msg[:MaxMessageLength] + "..."
		}
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// Report is the detailed parse of go test output.
type Report struct {
	Failures       []Failure
	Passed         int
	FailedPackages int
}

// HasFailures reports whether any test, package or build failed.
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0 || r.FailedPackages > 0
}

// Summary returns a multi-line description of every failure.
func (r *Report) Summary() string {
	if !r.HasFailures() {
		return "All tests passed"
	}
	var b strings.Builder
	b.WriteString("Test Failures:\n")
	for _, f := range r.Failures {
		b.WriteString("  - ")
		b.WriteString(f.String())
		b.WriteString("\n")
	}
	if r.FailedPackages > 0 {
		fmt.Fprintf(&b, "Failed packages: %d\n", r.FailedPackages)
	}
	return b.String()
}

// GoTestParser understands the verbose output of `go test`.
type GoTestParser struct {
	pkgFail  *regexp.Regexp
	testFail *regexp.Regexp
	testPass *regexp.Regexp
	panic    *regexp.Regexp
	location *regexp.Regexp
	okLine   *regexp.Regexp
	build    *regexp.Regexp
	noise    *regexp.Regexp
}

// NewGoTestParser compiles the line patterns once.
func NewGoTestParser() *GoTestParser {
	return &GoTestParser{
		pkgFail:  regexp.MustCompile(`^FAIL\s+(\S+)`),
		testFail: regexp.MustCompile(`^\s*---\s*FAIL:\s*(\S+)`),
		testPass: regexp.MustCompile(`^\s*---\s*PASS:`),
		panic:    regexp.MustCompile(`^panic:`),
		location: regexp.MustCompile(`^\s*([^:\s]+\.go):(\d+):\s*(.*)$`),
		okLine:   regexp.MustCompile(`^(ok|PASS)(\s+|$)`),
		build:    regexp.MustCompile(`^#\s+(\S+)`),
		noise:    regexp.MustCompile(`^(=== (RUN|CONT|PAUSE)\s+|coverage:)`),
	}
}

// Parse implements Parser. A non-zero exit code without any recognizable
// failure still counts as one failure so the retry loop never reports success
// for a broken run.
func (p *GoTestParser) Parse(out Output) types.TestResults {
	report := p.ParseReport(out.Stdout + "\n" + out.Stderr)

	res := types.TestResults{Passed: report.Passed, Duration: out.Duration}
	for _, f := range report.Failures {
		res.Failures = append(res.Failures, f.String())
	}
	res.Failed = len(report.Failures)

	if res.Failed == 0 && (report.FailedPackages > 0 || out.ExitCode != 0) {
		res.Failed = 1
		msg := strings.TrimSpace(out.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("test command exited with code %d", out.ExitCode)
		}
		res.Failures = []string{msg}
	}
	res.Total = res.Passed + res.Failed
	return res
}

// Feedback implements Feedbacker with the per-test failure summary, falling
// back to FormatFailures when the output names no failure.
func (p *GoTestParser) Feedback(out Output, r types.TestResults) string {
	report := p.ParseReport(out.Stdout + "\n" + out.Stderr)
	if len(report.Failures) == 0 {
		return FormatFailures(r)
	}
	return fmt.Sprintf("%d tests failed.\n%s", r.Failed, report.Summary())
}

// lineState is the mutable cursor while walking output lines.
type lineState struct {
	report  *Report
	current int
	inBlock bool
}

func (s *lineState) open(f Failure) {
	s.report.Failures = append(s.report.Failures, f)
	s.current = len(s.report.Failures) - 1
	s.inBlock = true
}

func (s *lineState) appendMessage(msg string) {
	if s.current < 0 {
		return
	}
	f := &s.report.Failures[s.current]
	if f.Message != "" {
		f.Message += "\n"
	}
	f.Message += msg
}

// ParseReport walks raw go test output and extracts failures only.
func (p *GoTestParser) ParseReport(raw string) *Report {
	s := &lineState{report: &Report{}, current: -1}

	for _, line := range strings.Split(raw, "\n") {
		p.consume(s, line)
	}

	for i := range s.report.Failures {
		s.report.Failures[i].Message = strings.TrimSpace(s.report.Failures[i].Message)
	}
	return s.report
}

func (p *GoTestParser) consume(s *lineState, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		s.inBlock = false
		return
	}

	switch {
	case p.testPass.MatchString(line):
		s.report.Passed++
		s.inBlock = false
		return
	case p.okLine.MatchString(trimmed), p.noise.MatchString(trimmed):
		s.inBlock = false
		return
	}

	if m := p.build.FindStringSubmatch(line); m != nil {
		s.open(Failure{Test: buildFailureName, Package: m[1]})
		return
	}

	if m := p.pkgFail.FindStringSubmatch(line); m != nil {
		s.report.FailedPackages++
		s.inBlock = false
		return
	}
	if trimmed == "FAIL" {
		s.inBlock = false
		return
	}

	if m := p.testFail.FindStringSubmatch(line); m != nil {
		// A panic seen before its test name is attributed to that test.
		if s.current >= 0 && s.report.Failures[s.current].Panic &&
			s.report.Failures[s.current].Test == unknownFailureName {
			s.report.Failures[s.current].Test = m[1]
			s.inBlock = true
		} else {
			s.open(Failure{Test: m[1]})
		}
		return
	}

	if p.panic.MatchString(line) {
		if s.current < 0 {
			s.open(Failure{Test: unknownFailureName, Panic: true})
		} else {
			s.report.Failures[s.current].Panic = true
			s.inBlock = true
		}
		s.appendMessage(trimmed)
		return
	}

	if m := p.location.FindStringSubmatch(line); m != nil && s.current >= 0 {
		f := &s.report.Failures[s.current]
		if f.File == "" {
			f.File, f.Line = m[1], m[2]
		}
		if m[3] != "" {
			s.appendMessage(m[3])
		}
		s.inBlock = true
		return
	}

	if s.inBlock || looksLikeErrorDetail(line, trimmed) {
		s.appendMessage(trimmed)
		s.inBlock = true
	}
}

func looksLikeErrorDetail(line, trimmed string) bool {
	return strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "    ") ||
		strings.HasPrefix(trimmed, "Error:") ||
		strings.HasPrefix(trimmed, "expected:") ||
		strings.HasPrefix(trimmed, "got:")
}
