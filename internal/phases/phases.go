// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package phases implements the Plan&Test, Implement&Fix and
// Refactor&Document steps of the workflow. Executors never return errors:
// every failure is recorded on the returned PhaseResult.
package phases

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"tddflow/internal/agent"
	"tddflow/internal/telemetry"
	"tddflow/internal/testparse"
	"tddflow/pkg/types"
)

// DefaultMaxAttempts bounds the implement/fix loop.
const DefaultMaxAttempts = 3

// DefaultTestCommand returns the conventional test command for a language.
func DefaultTestCommand(language string) string {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "go", "golang":
		return "go test ./..."
	case "python", "py":
		return "python -m pytest"
	case "rust":
		return "cargo test"
	case "java":
		return "mvn -q test"
	default:
		return "npm test"
	}
}

// runTests executes the test command through the agent and parses its
// output. A command that cannot run counts as one failed test.
func runTests(ctx context.Context, client agent.Client, command string, parser testparse.Parser) (types.TestResults, testparse.Output) {
	res, err := client.ExecuteCommand(ctx, command)
	if err != nil {
		return testparse.ExecutionFailure(err), testparse.Output{}
	}
	out := commandOutput(res)
	return parser.Parse(out), out
}

func commandOutput(res *agent.CommandResult) testparse.Output {
	return testparse.Output{
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode,
		Duration: millis(res.DurationMs),
	}
}

func startPhase(ctx context.Context, name types.PhaseName) (context.Context, trace.Span) {
	return telemetry.StartSpan(ctx, telemetry.TracerOrchestrator, "phase."+string(name), telemetry.AttrPhase.String(string(name)))
}

func endPhase(span trace.Span, result *types.PhaseResult) {
	var err error
	if !result.Success {
		err = &types.PhaseError{Phase: result.Name, Message: result.Error}
	}
	telemetry.EndSpan(span, err,
		telemetry.AttrSuccess.Bool(result.Success),
		telemetry.DurationAttr(result.EndTime.Sub(result.StartTime)),
	)
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
