// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package phases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tddflow/internal/agent"
	"tddflow/internal/prompts"
	"tddflow/internal/testparse"
	"tddflow/pkg/types"
)

// RefactorDocument asks the quality reviewer to refactor and document the
// implementation, then confirms the tests still pass.
type RefactorDocument struct {
	client      agent.Client
	collector   *Collector
	testCommand string
	parser      testparse.Parser
}

// NewRefactorDocument creates the executor. An empty testCommand selects
// DefaultTestCommand(""); a nil parser selects the heuristic parser.
func NewRefactorDocument(client agent.Client, collector *Collector, testCommand string, parser testparse.Parser) *RefactorDocument {
	if testCommand == "" {
		testCommand = DefaultTestCommand("")
	}
	if parser == nil {
		parser = testparse.HeuristicParser{}
	}
	return &RefactorDocument{client: client, collector: collector, testCommand: testCommand, parser: parser}
}

// Execute runs the phase against the implementation output.
func (r *RefactorDocument) Execute(ctx context.Context, impl *types.PhaseResult, tctx types.TaskContext) *types.PhaseResult {
	result := types.NewPhaseResult(types.PhaseRefactorDocument)
	ctx, span := startPhase(ctx, result.Name)
	defer func() { endPhase(span, result) }()

	implOutput := ""
	if impl != nil {
		implOutput = impl.Output
	}

	slog.InfoContext(ctx, "refactoring and documenting", "phase", result.Name)

	resp, err := r.client.Query(ctx, prompts.Refactor(implOutput, tctx), tctx, &agent.QualityReviewer)
	if err != nil {
		return result.Fail(err.Error())
	}

	res, err := r.client.ExecuteCommand(ctx, r.testCommand)
	if err != nil {
		return result.Fail("Refactoring broke tests: " + err.Error())
	}
	tests := r.parser.Parse(commandOutput(res))
	result.TestResults = &tests
	if res.ExitCode != 0 {
		return result.Fail("Refactoring broke tests: " + breakage(res))
	}

	result.Success = true
	result.Output = resp.Content
	if files, err := r.collector.ImplementationFiles(ctx, tctx.ProjectPath); err == nil {
		result.Artifacts = files
	}
	return result.Finish()
}

// breakage describes a failing test run. Runners such as go test and
// pytest report failures on stdout only.
func breakage(res *agent.CommandResult) string {
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(res.Stdout); msg != "" {
		return msg
	}
	return fmt.Sprintf("test command exited with code %d", res.ExitCode)
}
