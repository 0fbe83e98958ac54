// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tddflow/internal/agent"
	"tddflow/internal/gates"
	"tddflow/internal/orchestrator"
)

func runCmd(a *app) *cobra.Command {
	var (
		flags       taskFlags
		maxAttempts int
		testCommand string
	)

	cmd := &cobra.Command{
		Use:   "run <task description>",
		Short: "Run the full TDD workflow for a task",
		Long: `Run scans the project, asks the agent to plan and write tests, implements
until the tests pass and finally refactors and documents the code.

Examples:
  tddflow run "Create a function that adds two integers and returns the sum"
  tddflow run -p ./service -l go "Add a retry helper for HTTP calls"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tctx, err := flags.context(taskArg(args), a.cfg)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-attempts") {
				a.cfg.Workflow.MaxAttempts = maxAttempts
			}
			if testCommand != "" {
				a.cfg.Workflow.TestCommand = testCommand
			}

			ctx := cmd.Context()
			a.serveMetrics(ctx)

			client := agent.NewOpenCodeClient(a.cfg.AgentOptions(tctx.ProjectPath))
			defer func() {
				if err := client.DeleteSession(context.WithoutCancel(ctx)); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}()

			result := a.orchestrator(client).ExecuteWorkflow(ctx, tctx.TaskDescription, tctx)

			if flags.json {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printWorkflow(cmd.OutOrStdout(), result)
			}
			if !result.Success {
				return errors.New("workflow did not succeed")
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 3, "implement & fix attempts")
	cmd.Flags().StringVar(&testCommand, "test-command", "", "test command (default derived from the language)")
	return cmd
}

// orchestrator wires the configured scanner, gates and metrics.
func (a *app) orchestrator(client agent.Client) *orchestrator.Orchestrator {
	return orchestrator.New(client,
		orchestrator.WithScannerConfig(a.cfg.Scanner),
		orchestrator.WithGateEngine(a.cfg.GateEngine(gates.WithObserver(a.metrics))),
		orchestrator.WithMetrics(a.metrics),
		orchestrator.WithMaxAttempts(a.cfg.Workflow.MaxAttempts),
		orchestrator.WithTestCommand(a.cfg.Workflow.TestCommand),
	)
}
