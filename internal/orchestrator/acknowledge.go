// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tddflow/pkg/types"
)

// ErrScanNotAcknowledged aborts a workflow whose scan findings were rejected.
var ErrScanNotAcknowledged = errors.New("CRITICAL: Agent must acknowledge codebase scan results before proceeding")

// Acknowledger confirms that the scan findings were reviewed before planning.
type Acknowledger interface {
	Acknowledge(ctx context.Context, scan *types.ScanResult) bool
}

// AcknowledgerFunc adapts a function to Acknowledger.
type AcknowledgerFunc func(ctx context.Context, scan *types.ScanResult) bool

// Acknowledge implements Acknowledger.
func (f AcknowledgerFunc) Acknowledge(ctx context.Context, scan *types.ScanResult) bool {
	return f(ctx, scan)
}

// AutoAcknowledge accepts every scan.
var AutoAcknowledge Acknowledger = AcknowledgerFunc(func(context.Context, *types.ScanResult) bool { return true })

// ValidateScanAcknowledgment logs the scan findings the agent has to take into
// account and asks ack to confirm them. A nil ack acknowledges automatically.
func ValidateScanAcknowledgment(ctx context.Context, scan *types.ScanResult, ack Acknowledger) bool {
	if scan == nil {
		return false
	}
	if ack == nil {
		ack = AutoAcknowledge
	}

	slog.InfoContext(ctx, "codebase scan acknowledgment required",
		"scan_id", scan.ScanID,
		"relevant_assets", len(scan.RelevantAssets),
		"reuse_opportunities", len(scan.ReuseOpportunities),
		"conflict_risks", len(scan.ConflictRisks),
	)
	for _, c := range scan.ConflictRisks {
		slog.WarnContext(ctx, "critical conflict must be addressed in the plan",
			"scan_id", scan.ScanID,
			"conflict", describeAsset(c),
		)
	}
	for _, r := range scan.ReuseOpportunities {
		slog.InfoContext(ctx, "consider reusing",
			"scan_id", scan.ScanID,
			"asset", fmt.Sprintf("%s (%s:%d)", r.Name, r.FilePath, r.LineNumber),
		)
	}

	ok := ack.Acknowledge(ctx, scan)
	slog.InfoContext(ctx, "codebase scan acknowledgment", "scan_id", scan.ScanID, "acknowledged", ok)
	return ok
}

func describeAsset(a types.AssetReference) string {
	return fmt.Sprintf("%s: %s (%s:%d)", a.Type, a.Name, a.FilePath, a.LineNumber)
}
