// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package temporal

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"

	"tddflow/internal/agent"
	"tddflow/internal/orchestrator"
	"tddflow/internal/scanner"
	"tddflow/pkg/types"
)

// heartbeatInterval keeps long runs inside DefaultHeartbeatTimeout
const heartbeatInterval = 30 * time.Second

// ClientFactory creates the agent client for one project
type ClientFactory func(projectPath string) agent.Client

// Activities runs the orchestrator inside a Temporal worker
type Activities struct {
	newClient ClientFactory
	scanner   *scanner.Scanner
	opts      []orchestrator.Option
}

// NewActivities creates the activity set. opts configure every orchestrator
// the activities create; the scanner is shared with them.
func NewActivities(newClient ClientFactory, scan *scanner.Scanner, opts ...orchestrator.Option) *Activities {
	if scan == nil {
		scan = scanner.New(scanner.DefaultConfig())
	}
	return &Activities{newClient: newClient, scanner: scan, opts: opts}
}

// ScanCodebase runs the asset scan on its own so the workflow can hold the
// findings for acknowledgment.
func (a *Activities) ScanCodebase(ctx context.Context, in TDDWorkflowInput) (*types.ScanResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Scanning codebase", "project", in.Context.ProjectPath)

	tctx := in.Context.WithDefaults()
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	scan := a.scanner.Scan(ctx, in.Task, tctx)

	logger.Info("Codebase scan complete",
		"scanID", scan.ScanID,
		"relevant", len(scan.RelevantAssets),
		"conflicts", len(scan.ConflictRisks),
	)
	return scan, nil
}

// RunTDDWorkflow executes the full workflow. The result carries every
// failure; an activity error is only returned when no result was produced.
func (a *Activities) RunTDDWorkflow(ctx context.Context, in TDDWorkflowInput) (*types.WorkflowResult, error) {
	logger := activity.GetLogger(ctx)
	if a.newClient == nil {
		return nil, errors.New("no agent client factory configured")
	}
	logger.Info("Starting TDD run", "task", in.Task, "project", in.Context.ProjectPath)

	stop := heartbeat(ctx, heartbeatInterval)
	defer stop()

	opts := append([]orchestrator.Option{orchestrator.WithScanner(a.scanner)}, a.opts...)
	acknowledged := in.Acknowledged
	opts = append(opts, orchestrator.WithAcknowledger(orchestrator.AcknowledgerFunc(
		func(context.Context, *types.ScanResult) bool { return acknowledged },
	)))
	if in.Scan != nil {
		opts = append(opts, orchestrator.WithScanResult(in.Scan))
	}

	o := orchestrator.New(a.newClient(in.Context.ProjectPath), opts...)
	result := o.ExecuteWorkflow(ctx, in.Task, in.Context)

	logger.Info("TDD run finished",
		"workflowID", result.WorkflowID,
		"success", result.Success,
		"error", result.Error,
		"quality", result.QualitySummary,
	)
	return result, nil
}

// heartbeat records progress until the returned stop function is called
func heartbeat(ctx context.Context, every time.Duration) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				activity.RecordHeartbeat(ctx, "running")
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
