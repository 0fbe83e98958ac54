// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package temporal

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Shared activity timeout constants
const (
	// RunStartToCloseTimeout bounds a whole TDD run: three phases, each with
	// several agent turns and test executions
	RunStartToCloseTimeout = 2 * time.Hour

	// DefaultHeartbeatTimeout is the standard heartbeat timeout
	DefaultHeartbeatTimeout = 2 * time.Minute

	// ScanStartToCloseTimeout is the timeout for the read-only codebase scan
	ScanStartToCloseTimeout = 5 * time.Minute

	// ScanMaxAttempts is the retry count for the codebase scan
	ScanMaxAttempts = 3
)

// GetNonIdempotentActivityOptions returns activity options for non-idempotent operations.
// The TDD run edits the project through the agent, so it must not be retried automatically.
func GetNonIdempotentActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: RunStartToCloseTimeout,
		HeartbeatTimeout:    DefaultHeartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
}

// GetScanActivityOptions returns activity options for the codebase scan, which
// only reads the project and is safe to retry.
func GetScanActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: ScanStartToCloseTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    ScanMaxAttempts,
		},
	}
}

// WithNonIdempotentOptions applies non-idempotent activity options to the workflow context
func WithNonIdempotentOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, GetNonIdempotentActivityOptions())
}

// WithScanOptions applies scan activity options to the workflow context
func WithScanOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, GetScanActivityOptions())
}
