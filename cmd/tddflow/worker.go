// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"github.com/spf13/cobra"

	"tddflow/internal/agent"
	"tddflow/internal/gates"
	"tddflow/internal/orchestrator"
	"tddflow/internal/scanner"
	"tddflow/internal/temporal"
)

func workerCmd(a *app) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a Temporal worker that executes durable TDD workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a.serveMetrics(ctx)

			acts := temporal.NewActivities(
				func(projectPath string) agent.Client {
					return agent.NewOpenCodeClient(a.cfg.AgentOptions(projectPath))
				},
				scanner.New(a.cfg.Scanner),
				orchestrator.WithGateEngine(a.cfg.GateEngine(gates.WithObserver(a.metrics))),
				orchestrator.WithMetrics(a.metrics),
				orchestrator.WithMaxAttempts(a.cfg.Workflow.MaxAttempts),
				orchestrator.WithTestCommand(a.cfg.Workflow.TestCommand),
			)

			w, err := temporal.NewTemporalWorker(a.workerOptions(concurrency), acts)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "concurrent workflow runs")
	return cmd
}

func (a *app) workerOptions(concurrency int) temporal.WorkerOptions {
	return temporal.WorkerOptions{
		HostPort:      a.cfg.Temporal.HostPort,
		Namespace:     a.cfg.Temporal.Namespace,
		TaskQueue:     a.cfg.Temporal.TaskQueue,
		MaxConcurrent: concurrency,
	}
}
