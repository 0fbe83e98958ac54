// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tddflow/internal/temporal"
	"tddflow/pkg/types"
)

func submitCmd(a *app) *cobra.Command {
	var (
		flags      taskFlags
		wait       bool
		requireAck bool
		ackTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit <task description>",
		Short: "Submit a task to the Temporal worker pool",
		Long: `Submit starts a durable TDD workflow on the configured task queue.

With --require-ack the workflow stops after the codebase scan until an
operator sends the AcknowledgeScan signal:

  temporal workflow signal --workflow-id <id> --name AcknowledgeScan --input true`,
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

			c, err := temporal.Dial(a.workerOptions(0))
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			run, err := temporal.Submit(ctx, c, a.cfg.Temporal.TaskQueue, temporal.TDDWorkflowInput{
				Task:                  tctx.TaskDescription,
				Context:               tctx,
				RequireAcknowledgment: requireAck,
				AcknowledgmentTimeout: ackTimeout,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted workflow %s (run %s)\n", run.GetID(), run.GetRunID())
			if !wait {
				return nil
			}

			var result types.WorkflowResult
			if err := run.Get(ctx, &result); err != nil {
				return fmt.Errorf("workflow failed: %w", err)
			}
			if flags.json {
				if err := writeJSON(cmd.OutOrStdout(), &result); err != nil {
					return err
				}
			} else {
				printWorkflow(cmd.OutOrStdout(), &result)
			}
			if !result.Success {
				return errors.New("workflow did not succeed")
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the workflow result")
	cmd.Flags().BoolVar(&requireAck, "require-ack", false, "hold the run until the scan is acknowledged")
	cmd.Flags().DurationVar(&ackTimeout, "ack-timeout", temporal.DefaultAcknowledgmentTimeout, "how long to wait for acknowledgment")
	return cmd
}
