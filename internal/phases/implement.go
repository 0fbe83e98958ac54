// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package phases

import (
	"context"
	"fmt"
	"log/slog"

	"tddflow/internal/agent"
	"tddflow/internal/gates"
	"tddflow/internal/prompts"
	"tddflow/internal/telemetry"
	"tddflow/internal/testparse"
	"tddflow/pkg/types"
)

// ImplementFix generates an implementation and reruns the tests, feeding the
// last failure back to the agent, until the tests pass or attempts run out.
// Attempts are sequential and immediate.
type ImplementFix struct {
	client      agent.Client
	collector   *Collector
	maxAttempts int
	testCommand string
	parser      testparse.Parser
}

// ImplementOption configures ImplementFix.
type ImplementOption func(*ImplementFix)

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) ImplementOption {
	return func(f *ImplementFix) { f.maxAttempts = n }
}

// WithTestCommand sets the test command.
func WithTestCommand(cmd string) ImplementOption {
	return func(f *ImplementFix) { f.testCommand = cmd }
}

// WithParser sets the test output parser.
func WithParser(p testparse.Parser) ImplementOption {
	return func(f *ImplementFix) { f.parser = p }
}

// NewImplementFix creates the executor with three attempts, the heuristic
// parser and the default test command unless overridden.
func NewImplementFix(client agent.Client, collector *Collector, opts ...ImplementOption) *ImplementFix {
	f := &ImplementFix{
		client:      client,
		collector:   collector,
		maxAttempts: DefaultMaxAttempts,
		testCommand: DefaultTestCommand(""),
		parser:      testparse.HeuristicParser{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxAttempts returns the configured attempt budget.
func (f *ImplementFix) MaxAttempts() int {
	return f.maxAttempts
}

// Execute runs the retry loop against the plan output.
func (f *ImplementFix) Execute(ctx context.Context, plan *types.PhaseResult, tctx types.TaskContext) *types.PhaseResult {
	result := types.NewPhaseResult(types.PhaseImplementFix)
	ctx, span := startPhase(ctx, result.Name)
	defer func() { endPhase(span, result) }()

	planOutput := ""
	if plan != nil {
		planOutput = plan.Output
	}
	snapshot := f.snapshotTests(ctx, tctx.ProjectPath)

	budget := NewAttemptBudget(f.maxAttempts)
	var (
		lastError string
		last      types.TestResults
	)

	for budget.Next() {
		attempt := budget.Used()
		slog.InfoContext(ctx, "implementation attempt", "phase", result.Name, "attempt", attempt, "max_attempts", budget.Max())
		telemetry.AddEvent(ctx, "attempt", telemetry.AttrAttempt.Int(attempt))

		resp, err := f.client.Query(ctx, prompts.Implementation(planOutput, lastError, tctx), tctx, &agent.ImplementationEngineer)
		if err != nil {
			lastError = err.Error()
			slog.WarnContext(ctx, "implementation error", "phase", result.Name, "attempt", attempt, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		var out testparse.Output
		last, out = runTests(ctx, f.client, f.testCommand, f.parser)
		telemetry.AddEvent(ctx, "tests",
			telemetry.AttrAttempt.Int(attempt),
			telemetry.AttrTestsPassed.Int(last.Passed),
			telemetry.AttrTestsFailed.Int(last.Failed),
		)

		if last.Failed == 0 {
			slog.InfoContext(ctx, "all tests passed", "phase", result.Name, "attempt", attempt)
			result.Success = true
			result.Output = resp.Content
			break
		}

		lastError = testparse.Feedback(f.parser, out, last)
		slog.WarnContext(ctx, "tests failed", "phase", result.Name, "attempt", attempt, "failed", last.Failed, "remaining", budget.Remaining())
	}

	result.Attempts = budget.Used()
	result.TestResults = &last
	result.Metadata = map[string]any{
		"attempts":     result.Attempts,
		"test_results": last,
	}

	if modified := f.modifiedTests(ctx, tctx.ProjectPath, snapshot); len(modified) > 0 {
		slog.WarnContext(ctx, "test files changed during implementation", "phase", result.Name, "files", modified)
		result.Metadata["modified_tests"] = modified
	}

	if !result.Success {
		return result.Fail(fmt.Sprintf("Failed after %d attempts. Last error: %s", result.Attempts, lastError))
	}

	if files, err := f.collector.ImplementationFiles(ctx, tctx.ProjectPath); err == nil {
		result.Artifacts = files
	} else {
		slog.WarnContext(ctx, "could not list implementation files", "phase", result.Name, "error", err)
	}
	return result.Finish()
}

func (f *ImplementFix) snapshotTests(ctx context.Context, root string) *gates.TestSnapshot {
	tests, err := f.collector.TestContents(ctx, root)
	if err != nil {
		slog.DebugContext(ctx, "test snapshot unavailable", "error", err)
	}
	return gates.NewTestSnapshot(tests)
}

func (f *ImplementFix) modifiedTests(ctx context.Context, root string, snapshot *gates.TestSnapshot) []string {
	if snapshot.Len() == 0 {
		return nil
	}
	current, err := f.collector.TestContents(ctx, root)
	if err != nil {
		return nil
	}
	return snapshot.Modified(current)
}
