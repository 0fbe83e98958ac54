// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tddflow/internal/config"
	"tddflow/internal/metrics"
	"tddflow/internal/telemetry"
)

// Version is set via ldflags during build.
var Version = "0.1.0"

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	tracer   *telemetry.TracerProvider
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tddflow",
		Short: "tddflow - test-driven code generation with an AI agent",
		Long: `tddflow drives a coding agent through a test-first workflow:
scan the codebase, plan and write tests, implement until the tests pass,
then refactor and document. Every phase is scored by quality gates.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(runCmd(a))
	root.AddCommand(scanCmd(a))
	root.AddCommand(gatesCmd(a))
	root.AddCommand(workerCmd(a))
	root.AddCommand(submitCmd(a))
	root.AddCommand(versionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	slog.SetDefault(cfg.NewLogger(cmd.ErrOrStderr()))

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(cmd.Context(), cfg.TracerConfig(Version))
		if err != nil {
			return fmt.Errorf("failed to start tracing: %w", err)
		}
		a.tracer = tp
	}

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.tracer == nil {
		return nil
	}
	return a.tracer.Shutdown(context.WithoutCancel(ctx))
}

// serveMetrics exposes the registry while ctx is alive, when enabled.
func (a *app) serveMetrics(ctx context.Context) {
	if !a.cfg.Metrics.Enabled {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, a.cfg.Metrics.Addr, a.registry); err != nil {
			slog.Error("metrics server stopped", "addr", a.cfg.Metrics.Addr, "error", err)
		}
	}()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tddflow version %s\n", Version)
		},
	}
}
