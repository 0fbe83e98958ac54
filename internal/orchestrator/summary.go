// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"tddflow/pkg/types"
)

// OverallQualityScore is the mean report score, 0 without reports.
func OverallQualityScore(reports []*types.QualityGateReport) float64 {
	if len(reports) == 0 {
		return 0
	}
	var total float64
	for _, r := range reports {
		total += r.OverallScore
	}
	return total / float64(len(reports))
}

// QualitySummary renders the one-line quality verdict of a workflow.
func QualitySummary(reports []*types.QualityGateReport) string {
	passed := 0
	for _, r := range reports {
		if r.OverallPassed {
			passed++
		}
	}
	return fmt.Sprintf("Quality Score: %.1f%% | Gates Passed: %d/%d",
		OverallQualityScore(reports)*100, passed, len(reports))
}

func logQualitySummary(ctx context.Context, log *slog.Logger, reports []*types.QualityGateReport) {
	for i, r := range reports {
		log.InfoContext(ctx, "quality assessment",
			"index", i+1,
			"phase", r.Phase,
			"passed", r.OverallPassed,
			"score", fmt.Sprintf("%.1f%%", r.OverallScore*100),
			"recommendations", len(r.Recommendations),
		)
	}
	log.InfoContext(ctx, "overall quality", "score", fmt.Sprintf("%.1f%%", OverallQualityScore(reports)*100))
}

// collectArtifacts merges phase artifacts, first occurrence wins.
func collectArtifacts(phases []*types.PhaseResult) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range phases {
		for _, a := range p.Artifacts {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}
