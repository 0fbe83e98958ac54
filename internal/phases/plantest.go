// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package phases

import (
	"context"
	"log/slog"

	"tddflow/internal/agent"
	"tddflow/internal/prompts"
	"tddflow/pkg/types"
)

// PlanTest asks the planning analyst for a plan and the failing tests, then
// checks that test files exist in the project.
type PlanTest struct {
	client    agent.Client
	collector *Collector
}

// NewPlanTest creates the Plan&Test executor.
func NewPlanTest(client agent.Client, collector *Collector) *PlanTest {
	return &PlanTest{client: client, collector: collector}
}

// Execute runs the phase. The scan may be nil.
func (p *PlanTest) Execute(ctx context.Context, task string, tctx types.TaskContext, scan *types.ScanResult) *types.PhaseResult {
	result := types.NewPhaseResult(types.PhasePlanTest)
	ctx, span := startPhase(ctx, result.Name)
	defer func() { endPhase(span, result) }()

	slog.InfoContext(ctx, "planning and writing tests", "phase", result.Name)

	resp, err := p.client.Query(ctx, prompts.PlanAndTest(task, tctx, scan), tctx, &agent.PlanningAnalyst)
	if err != nil {
		return result.Fail(err.Error())
	}

	tests, err := p.collector.TestFiles(ctx, tctx.ProjectPath)
	if err != nil {
		return result.Fail("Test creation failed: " + err.Error())
	}
	if len(tests) == 0 {
		return result.Fail("Test creation failed: no test files found")
	}

	slog.InfoContext(ctx, "test files present", "phase", result.Name, "count", len(tests))
	result.Success = true
	result.Output = resp.Content
	result.Artifacts = tests
	return result.Finish()
}
