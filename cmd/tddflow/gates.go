// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"tddflow/internal/gates"
	"tddflow/internal/phases"
	"tddflow/pkg/types"
)

func gatesCmd(a *app) *cobra.Command {
	var (
		project  string
		language string
		phase    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "gates",
		Short: "Run the quality gates against the project as it is",
		Long: `Gates collects the implementation and test files of the project and scores
them with the configured quality gates.

Exit codes:
  0 - All required gates pass
  1 - A required gate failed or the project could not be read`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := filepath.Abs(project)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			artifact, err := phases.NewCollector(a.cfg.Scanner).Artifact(ctx, root)
			if err != nil {
				return err
			}
			tctx := types.TaskContext{
				ProjectPath: root,
				Language:    firstNonEmpty(language, a.cfg.Workflow.Language),
			}
			report := a.cfg.GateEngine(gates.WithObserver(a.metrics)).RunGates(ctx, artifact, tctx, phase)

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			if !report.OverallPassed {
				return errors.New("required quality gates failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", ".", "project directory")
	cmd.Flags().StringVarP(&language, "language", "l", "", "primary project language")
	cmd.Flags().StringVar(&phase, "phase", string(types.PhaseRefactorDocument), "phase label for the report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
