// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package orchestrator drives one task through scan, plan & test,
// implement & fix and refactor & document, gating every phase.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tddflow/internal/agent"
	"tddflow/internal/gates"
	"tddflow/internal/metrics"
	"tddflow/internal/phases"
	"tddflow/internal/prompts"
	"tddflow/internal/scanner"
	"tddflow/internal/telemetry"
	"tddflow/internal/testparse"
	"tddflow/pkg/types"
)

// Orchestrator runs TDD workflows. It holds no per-workflow state and may
// run several workflows concurrently, unless built WithScanResult.
type Orchestrator struct {
	client  agent.Client
	scanner *scanner.Scanner
	gates   *gates.Engine
	metrics *metrics.Metrics
	ack     Acknowledger
	plan    *PhasePlan
	scanned *types.ScanResult

	maxAttempts int
	testCommand string
	parser      testparse.Parser
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithScannerConfig replaces the default scanner configuration.
func WithScannerConfig(cfg scanner.Config) Option {
	return func(o *Orchestrator) { o.scanner = scanner.New(cfg) }
}

// WithScanner replaces the scanner.
func WithScanner(s *scanner.Scanner) Option {
	return func(o *Orchestrator) { o.scanner = s }
}

// WithScanResult makes the scan phase reuse scan, typically one an operator
// already acknowledged, for workflows on the same project path. Other
// projects are scanned as usual.
func WithScanResult(scan *types.ScanResult) Option {
	return func(o *Orchestrator) { o.scanned = scan }
}

// WithGateEngine replaces the default gate engine.
func WithGateEngine(e *gates.Engine) Option {
	return func(o *Orchestrator) { o.gates = e }
}

// WithMetrics records workflow, phase, gate and scan metrics. When no gate
// engine is supplied the default one reports to m as well.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithAcknowledger installs the scan acknowledgment hook.
func WithAcknowledger(a Acknowledger) Option {
	return func(o *Orchestrator) { o.ack = a }
}

// WithMaxAttempts bounds the implement & fix loop.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) { o.maxAttempts = n }
}

// WithTestCommand fixes the test command instead of deriving it from the language.
func WithTestCommand(cmd string) Option {
	return func(o *Orchestrator) { o.testCommand = cmd }
}

// WithParser fixes the test output parser instead of deriving it from the language.
func WithParser(p testparse.Parser) Option {
	return func(o *Orchestrator) { o.parser = p }
}

// New creates an orchestrator around client.
func New(client agent.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		ack:         AutoAcknowledge,
		plan:        DefaultPhasePlan(),
		maxAttempts: phases.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.scanner == nil {
		o.scanner = scanner.New(scanner.DefaultConfig())
	}
	if o.gates == nil {
		var gateOpts []gates.Option
		if o.metrics != nil {
			gateOpts = append(gateOpts, gates.WithObserver(o.metrics))
		}
		o.gates = gates.NewDefaultEngine(gateOpts...)
	}
	return o
}

// run is the state of one workflow.
type run struct {
	task      string
	tctx      types.TaskContext
	log       *slog.Logger
	result    *types.WorkflowResult
	collector *phases.Collector

	planTest  *phases.PlanTest
	implement *phases.ImplementFix
	refactor  *phases.RefactorDocument

	plan *types.PhaseResult
	impl *types.PhaseResult
}

type stepFunc func(ctx context.Context, r *run) error

// ExecuteWorkflow runs task to completion. It never returns an error and
// never panics: failures are reported through Success and Error, and the
// phases and quality reports gathered before a failure are kept.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, task string, tctx types.TaskContext) (result *types.WorkflowResult) {
	tctx = tctx.WithDefaults()
	if tctx.TaskDescription == "" {
		tctx.TaskDescription = task
	}
	if task == "" {
		task = tctx.TaskDescription
	}

	result = &types.WorkflowResult{
		WorkflowID:      uuid.NewString(),
		TaskDescription: task,
		StartTime:       time.Now(),
		Phases:          []*types.PhaseResult{},
		Artifacts:       []string{},
		QualityReports:  []*types.QualityGateReport{},
	}
	log := slog.Default().With("workflow_id", result.WorkflowID)

	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerOrchestrator, "workflow.execute",
		telemetry.AttrWorkflowID.String(result.WorkflowID),
		telemetry.AttrTask.String(task),
	)
	o.metrics.WorkflowStarted()
	log.InfoContext(ctx, "workflow started",
		"task", task,
		"project", tctx.ProjectPath,
		"language", tctx.Language,
		"trace_id", telemetry.TraceID(ctx),
	)

	defer func() {
		if p := recover(); p != nil {
			log.ErrorContext(ctx, "workflow panicked", "panic", p)
			result.Success = false
			result.Error = fmt.Sprintf("workflow panicked: %v", p)
		}
		o.finish(ctx, log, result)
		var err error
		if !result.Success {
			err = errors.New(result.Error)
		}
		telemetry.EndSpan(span, err,
			telemetry.AttrSuccess.Bool(result.Success),
			telemetry.AttrOverall.Float64(result.OverallQualityScore),
			telemetry.DurationAttr(result.Duration),
		)
	}()

	if err := tctx.Validate(); err != nil {
		log.WarnContext(ctx, "invalid task context", "error", err)
		result.Error = err.Error()
		return result
	}

	r := o.newRun(task, tctx, log, result)
	steps := map[types.PhaseName]stepFunc{
		types.PhaseScan:             o.scan,
		types.PhasePlanTest:         o.planAndTest,
		types.PhaseImplementFix:     o.implementAndFix,
		types.PhaseRefactorDocument: o.refactorAndDocument,
	}
	for _, name := range o.plan.Order() {
		step, ok := steps[name]
		if !ok {
			result.Error = fmt.Sprintf("no executor for phase %q", name)
			return result
		}
		if err := step(ctx, r); err != nil {
			log.ErrorContext(ctx, "workflow aborted", "phase", name, "error", err)
			result.Success = false
			result.Error = err.Error()
			return result
		}
	}
	return result
}

func (o *Orchestrator) newRun(task string, tctx types.TaskContext, log *slog.Logger, result *types.WorkflowResult) *run {
	testCommand := o.testCommand
	if testCommand == "" {
		testCommand = phases.DefaultTestCommand(tctx.Language)
	}
	parser := o.parser
	if parser == nil {
		parser = testparse.ForLanguage(tctx.Language)
	}
	collector := phases.NewCollector(o.scanner.Config())

	return &run{
		task:      task,
		tctx:      tctx,
		log:       log,
		result:    result,
		collector: collector,
		planTest:  phases.NewPlanTest(o.client, collector),
		implement: phases.NewImplementFix(o.client, collector,
			phases.WithMaxAttempts(o.maxAttempts),
			phases.WithTestCommand(testCommand),
			phases.WithParser(parser),
		),
		refactor: phases.NewRefactorDocument(o.client, collector, testCommand, parser),
	}
}

// scan always succeeds; only a rejected acknowledgment stops the workflow.
func (o *Orchestrator) scan(ctx context.Context, r *run) error {
	r.log.InfoContext(ctx, "phase started", "phase", types.PhaseScan)
	scan := o.scanned
	if scan != nil && scan.ProjectPath == r.tctx.ProjectPath {
		r.log.InfoContext(ctx, "reusing codebase scan", "scan_id", scan.ScanID)
	} else {
		scan = o.scanner.Scan(ctx, r.task, r.tctx)
	}
	r.result.Scan = scan
	o.metrics.ScanFinished(scan, scanner.IsDegraded(scan))

	if !ValidateScanAcknowledgment(ctx, scan, o.ack) {
		return ErrScanNotAcknowledged
	}
	return nil
}

func (o *Orchestrator) planAndTest(ctx context.Context, r *run) error {
	r.log.InfoContext(ctx, "phase started", "phase", types.PhasePlanTest)
	plan := r.planTest.Execute(ctx, r.task, r.tctx, r.result.Scan)
	o.recordPhase(ctx, r, plan)

	tests, err := r.collector.TestContents(ctx, r.tctx.ProjectPath)
	if err != nil {
		r.log.WarnContext(ctx, "could not read test files for gating", "error", err)
	}
	report := o.gate(ctx, r, types.Artifact{Files: []types.FileContent{}, TestFiles: tests}, plan)
	if !report.OverallPassed {
		r.log.WarnContext(ctx, "quality gates failed", "phase", plan.Name)
	}

	r.result.Phases = append(r.result.Phases, plan)
	r.plan = plan
	if !plan.Success {
		return &types.PhaseError{Phase: plan.Name, Message: plan.Error}
	}
	return nil
}

func (o *Orchestrator) implementAndFix(ctx context.Context, r *run) error {
	r.log.InfoContext(ctx, "phase started", "phase", types.PhaseImplementFix)
	impl := r.implement.Execute(ctx, r.plan, r.tctx)
	o.recordPhase(ctx, r, impl)

	report := o.gate(ctx, r, o.artifact(ctx, r), impl)
	if !report.OverallPassed {
		r.log.WarnContext(ctx, "quality gates detected issues", "phase", impl.Name)
		o.improve(ctx, r, report)
	}

	r.result.Phases = append(r.result.Phases, impl)
	r.impl = impl
	if !impl.Success {
		return &types.PhaseError{Phase: impl.Name, Message: impl.Error}
	}
	return nil
}

func (o *Orchestrator) refactorAndDocument(ctx context.Context, r *run) error {
	r.log.InfoContext(ctx, "phase started", "phase", types.PhaseRefactorDocument)
	refactor := r.refactor.Execute(ctx, r.impl, r.tctx)
	o.recordPhase(ctx, r, refactor)

	report := o.gate(ctx, r, o.artifact(ctx, r), refactor)
	r.result.Phases = append(r.result.Phases, refactor)
	r.result.Success = refactor.Success && report.OverallPassed
	return nil
}

// improve sends one advisory request built from the gate recommendations.
// Its outcome does not affect the workflow.
func (o *Orchestrator) improve(ctx context.Context, r *run, report *types.QualityGateReport) {
	if len(report.Recommendations) == 0 {
		return
	}
	r.log.InfoContext(ctx, "applying quality improvements", "recommendations", len(report.Recommendations))
	if _, err := o.client.Query(ctx, prompts.Improvement(report.Recommendations), r.tctx, nil); err != nil {
		r.log.WarnContext(ctx, "quality improvement failed", "error", err)
	}
}

func (o *Orchestrator) gate(ctx context.Context, r *run, artifact types.Artifact, phase *types.PhaseResult) *types.QualityGateReport {
	report := o.gates.RunGates(ctx, artifact, r.tctx, string(phase.Name))
	r.result.QualityReports = append(r.result.QualityReports, report)
	phase.QualityReport = report
	telemetry.AddEvent(ctx, "quality_gates",
		telemetry.AttrPhase.String(string(phase.Name)),
		telemetry.AttrOverall.Float64(report.OverallScore),
		telemetry.AttrSuccess.Bool(report.OverallPassed),
	)
	return report
}

func (o *Orchestrator) artifact(ctx context.Context, r *run) types.Artifact {
	a, err := r.collector.Artifact(ctx, r.tctx.ProjectPath)
	if err != nil {
		r.log.WarnContext(ctx, "could not collect artifact", "error", err)
	}
	return a
}

func (o *Orchestrator) recordPhase(ctx context.Context, r *run, p *types.PhaseResult) {
	o.metrics.PhaseFinished(p)
	attrs := []any{
		"phase", p.Name,
		"success", p.Success,
		"duration", p.EndTime.Sub(p.StartTime),
		"artifacts", len(p.Artifacts),
	}
	if p.Attempts > 0 {
		attrs = append(attrs, "attempts", p.Attempts)
	}
	if p.Error != "" {
		attrs = append(attrs, "error", p.Error)
	}
	r.log.InfoContext(ctx, "phase finished", attrs...)
}

func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, result *types.WorkflowResult) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.OverallQualityScore = OverallQualityScore(result.QualityReports)
	result.QualitySummary = QualitySummary(result.QualityReports)
	result.Artifacts = collectArtifacts(result.Phases)

	if len(result.QualityReports) > 0 {
		logQualitySummary(ctx, log, result.QualityReports)
	}
	o.metrics.WorkflowFinished(result)
	log.InfoContext(ctx, "workflow finished",
		"success", result.Success,
		"error", result.Error,
		"phases", len(result.Phases),
		"duration", result.Duration,
		"quality", result.QualitySummary,
	)
}
