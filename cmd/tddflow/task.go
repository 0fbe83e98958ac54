// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tddflow/internal/config"
	"tddflow/pkg/types"
)

// taskFlags are the task context flags shared by run, scan and submit.
type taskFlags struct {
	project   string
	language  string
	framework string
	maxTurns  int
	json      bool
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", ".", "project directory")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "primary project language (default workflow.language)")
	cmd.Flags().StringVar(&f.framework, "framework", "", "test framework (default workflow.framework)")
	cmd.Flags().IntVar(&f.maxTurns, "max-turns", 0, "agent turns per query, 1-10 (default workflow.max_turns)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the result as JSON")
}

// context builds the task context, falling back to the workflow config.
func (f *taskFlags) context(task string, cfg *config.Config) (types.TaskContext, error) {
	project, err := filepath.Abs(f.project)
	if err != nil {
		return types.TaskContext{}, fmt.Errorf("invalid project path: %w", err)
	}

	tctx := types.TaskContext{
		TaskDescription: task,
		ProjectPath:     project,
		Language:        firstNonEmpty(f.language, cfg.Workflow.Language),
		Framework:       firstNonEmpty(f.framework, cfg.Workflow.Framework),
		MaxTurns:        f.maxTurns,
	}
	if tctx.MaxTurns == 0 {
		tctx.MaxTurns = cfg.Workflow.MaxTurns
	}
	return tctx, nil
}

func taskArg(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWorkflow(w io.Writer, r *types.WorkflowResult) {
	status := "SUCCESS"
	if !r.Success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "Workflow %s: %s (%s)\n", r.WorkflowID, status, r.Duration.Round(time.Millisecond))
	if r.Scan != nil {
		printScanSummary(w, r.Scan)
	}
	for _, p := range r.Phases {
		mark := "✓"
		if !p.Success {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %s (%s)", mark, p.Name, p.EndTime.Sub(p.StartTime).Round(time.Millisecond))
		if p.Attempts > 0 {
			fmt.Fprintf(w, " attempts=%d", p.Attempts)
		}
		if p.QualityReport != nil {
			fmt.Fprintf(w, " quality=%.1f%%", p.QualityReport.OverallScore*100)
		}
		fmt.Fprintln(w)
		if p.Error != "" {
			fmt.Fprintf(w, "    %s\n", p.Error)
		}
	}
	if impl := r.Phase(types.PhaseImplementFix); impl != nil && impl.TestResults != nil {
		tr := impl.TestResults
		fmt.Fprintf(w, "Tests: %d passed, %d failed of %d\n", tr.Passed, tr.Failed, tr.Total)
	}
	fmt.Fprintln(w, r.QualitySummary)
	if len(r.Artifacts) > 0 {
		fmt.Fprintf(w, "Artifacts: %s\n", strings.Join(r.Artifacts, ", "))
	}
	if r.Error != "" {
		if last := r.LastPhase(); last != nil && !r.Success {
			fmt.Fprintf(w, "Stopped after: %s\n", last.Name)
		}
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
}

func printScanSummary(w io.Writer, s *types.ScanResult) {
	fmt.Fprintf(w, "Scan %s: %d files, %d relevant assets, %d reuse opportunities, %d conflict risks\n",
		s.ScanID, s.TotalFiles, len(s.RelevantAssets), len(s.ReuseOpportunities), len(s.ConflictRisks))
}

func printScan(w io.Writer, s *types.ScanResult) {
	printScanSummary(w, s)
	for _, a := range s.RelevantAssets {
		fmt.Fprintf(w, "  %s %s (%s:%d)\n", a.Type, a.Name, a.FilePath, a.LineNumber)
	}
	for _, rec := range s.Recommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}
}

func printReport(w io.Writer, r *types.QualityGateReport) {
	verdict := "PASSED"
	if !r.OverallPassed {
		verdict = "FAILED"
	}
	fmt.Fprintf(w, "Quality gates (%s): %s, score %.1f%%\n", r.Phase, verdict, r.OverallScore*100)
	for _, name := range slices.Sorted(maps.Keys(r.GateResults)) {
		res := r.GateResults[name]
		mark := "✓"
		if !res.Passed {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %s %.2f\n", mark, name, res.Score)
		for _, issue := range res.Issues {
			fmt.Fprintf(w, "      %s\n", issue)
		}
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}
}
