// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"tddflow/pkg/types"
)

// Signal and query names
const (
	// AcknowledgeSignal carries the operator's verdict (bool) on the scan findings
	AcknowledgeSignal = "AcknowledgeScan"

	// StatusQuery returns the current WorkflowStatus
	StatusQuery = "status"

	// DefaultAcknowledgmentTimeout is how long a run waits for AcknowledgeSignal
	DefaultAcknowledgmentTimeout = 24 * time.Hour
)

// Workflow stages reported by StatusQuery
const (
	StageScanning    = "scanning"
	StageAwaitingAck = "awaiting-acknowledgment"
	StageRunning     = "running"
	StageCompleted   = "completed"
	StageRejected    = "rejected"
)

// TDDWorkflowInput is the input of TDDWorkflow and its activities
type TDDWorkflowInput struct {
	Task    string
	Context types.TaskContext

	// RequireAcknowledgment holds the run after the scan until AcknowledgeSignal arrives
	RequireAcknowledgment bool

	// AcknowledgmentTimeout bounds the wait; zero means DefaultAcknowledgmentTimeout
	AcknowledgmentTimeout time.Duration

	// Acknowledged is set by the workflow before the run activity starts
	Acknowledged bool

	// Scan is the scan the operator reviewed; the run reuses it
	Scan *types.ScanResult
}

// WorkflowStatus is the answer to StatusQuery
type WorkflowStatus struct {
	Stage string
	Scan  *types.ScanResult
}

// TDDWorkflow runs one task durably. With RequireAcknowledgment the scan runs
// first and the workflow waits for an operator to accept its findings.
func TDDWorkflow(ctx workflow.Context, in TDDWorkflowInput) (*types.WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting TDD workflow", "task", in.Task, "project", in.Context.ProjectPath)

	status := WorkflowStatus{Stage: StageRunning}
	if err := workflow.SetQueryHandler(ctx, StatusQuery, func() (WorkflowStatus, error) {
		return status, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to register status query: %w", err)
	}

	var a *Activities
	in.Acknowledged = true

	if in.RequireAcknowledgment {
		status.Stage = StageScanning
		var scan types.ScanResult
		if err := workflow.ExecuteActivity(WithScanOptions(ctx), a.ScanCodebase, in).Get(ctx, &scan); err != nil {
			return nil, fmt.Errorf("scan activity failed: %w", err)
		}
		status.Scan = &scan
		in.Scan = &scan

		status.Stage = StageAwaitingAck
		in.Acknowledged = awaitAcknowledgment(ctx, in.AcknowledgmentTimeout)
		if !in.Acknowledged {
			status.Stage = StageRejected
		}
	}

	if status.Stage != StageRejected {
		status.Stage = StageRunning
	}

	var result types.WorkflowResult
	if err := workflow.ExecuteActivity(WithNonIdempotentOptions(ctx), a.RunTDDWorkflow, in).Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("tdd run activity failed: %w", err)
	}
	if status.Stage != StageRejected {
		status.Stage = StageCompleted
	}

	logger.Info("TDD workflow finished",
		"success", result.Success,
		"error", result.Error,
		"quality", result.QualitySummary,
	)
	return &result, nil
}

// awaitAcknowledgment blocks until AcknowledgeSignal or the timeout. A timeout
// counts as rejection.
func awaitAcknowledgment(ctx workflow.Context, timeout time.Duration) bool {
	logger := workflow.GetLogger(ctx)
	if timeout <= 0 {
		timeout = DefaultAcknowledgmentTimeout
	}

	timerCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()

	var acknowledged, received bool
	selector := workflow.NewSelector(ctx)
	selector.AddReceive(workflow.GetSignalChannel(ctx, AcknowledgeSignal), func(c workflow.ReceiveChannel, _ bool) {
		c.Receive(ctx, &acknowledged)
		received = true
	})
	selector.AddFuture(workflow.NewTimer(timerCtx, timeout), func(workflow.Future) {})

	logger.Info("Waiting for scan acknowledgment", "signal", AcknowledgeSignal, "timeout", timeout)
	selector.Select(ctx)

	if !received {
		logger.Warn("Scan acknowledgment timed out")
		return false
	}
	logger.Info("Received scan acknowledgment", "acknowledged", acknowledged)
	return acknowledged
}
