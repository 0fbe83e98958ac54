// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"github.com/spf13/cobra"

	"tddflow/internal/scanner"
)

func scanCmd(a *app) *cobra.Command {
	var flags taskFlags

	cmd := &cobra.Command{
		Use:   "scan <task description>",
		Short: "Scan the project for assets related to a task",
		Long: `Scan lists existing functions, types and components that the task could
reuse or collide with. It never contacts the agent.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tctx, err := flags.context(taskArg(args), a.cfg)
			if err != nil {
				return err
			}
			tctx = tctx.WithDefaults()
			if err := tctx.Validate(); err != nil {
				return err
			}

			result := scanner.New(a.cfg.Scanner).Scan(cmd.Context(), tctx.TaskDescription, tctx)
			a.metrics.ScanFinished(result, scanner.IsDegraded(result))

			if flags.json {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printScan(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
