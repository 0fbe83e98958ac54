// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package gates implements the weighted quality gates that score every phase
// artifact. Gates are independent heuristics; the Engine aggregates them into
// one report per phase.
package gates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"tddflow/internal/telemetry"
	"tddflow/pkg/types"
)

// Gate names of the default set
const (
	GateSyntax        = "syntax-validation"
	GateTestCoverage  = "test-coverage"
	GateCodeQuality   = "code-quality"
	GateDocumentation = "documentation"
)

// Gate is one quality validator. Implementations must be stateless so a
// single instance can be shared between workflows.
type Gate interface {
	// Name returns the stable gate identifier used as the report key.
	Name() string

	// Weight is the gate's contribution to the overall score.
	Weight() float64

	// Required gates decide OverallPassed.
	Required() bool

	// Validate scores the artifact.
	Validate(ctx context.Context, artifact types.Artifact, tctx types.TaskContext) (types.QualityResult, error)
}

// GateError is recorded when a gate fails to evaluate
type GateError struct {
	Gate  string
	Cause error
}

// Error implements the error interface
func (e *GateError) Error() string {
	return fmt.Sprintf("[%s] gate error: %v", e.Gate, e.Cause)
}

// Unwrap allows error wrapping
func (e *GateError) Unwrap() error {
	return e.Cause
}

// Observer receives every gate evaluation, used for metrics
type Observer interface {
	GateEvaluated(phase, gate string, result types.QualityResult, elapsed time.Duration)
}

// Engine runs a gate set against artifacts
type Engine struct {
	gates    []Gate
	observer Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithObserver registers an observer for gate evaluations
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an engine for the given gates, run in order
func NewEngine(gates []Gate, opts ...Option) *Engine {
	e := &Engine{gates: gates}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefaultEngine creates an engine with the four standard gates
func NewDefaultEngine(opts ...Option) *Engine {
	return NewEngine(DefaultGates(), opts...)
}

// DefaultGates returns the standard gate set in evaluation order
func DefaultGates() []Gate {
	return []Gate{
		NewSyntaxGate(),
		NewTestCoverageGate(),
		NewCodeQualityGate(),
		NewDocumentationGate(),
	}
}

// Gates returns the engine's gate set
func (e *Engine) Gates() []Gate {
	return e.gates
}

// RunGates evaluates every gate and aggregates the results. A gate that
// errors or panics is recorded as a zero-score failure and is excluded from
// the weighted mean; the remaining gates still run.
func (e *Engine) RunGates(ctx context.Context, artifact types.Artifact, tctx types.TaskContext, phase string) *types.QualityGateReport {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerGates, "gates.run", telemetry.AttrPhase.String(phase))

	report := &types.QualityGateReport{
		Phase:           phase,
		OverallPassed:   true,
		GateResults:     make(map[string]types.QualityResult, len(e.gates)),
		Recommendations: []string{},
	}

	var weighted, totalWeight float64
	for _, g := range e.gates {
		start := time.Now()
		result, err := evaluate(ctx, g, artifact, tctx)
		elapsed := time.Since(start)

		// Failed gates score zero and stay out of the mean
		var gateErr *GateError
		if errors.As(err, &gateErr) {
			slog.WarnContext(ctx, "quality gate failed to evaluate", "phase", phase, "gate", g.Name(), "error", gateErr.Cause)
			result = types.QualityResult{
				Passed:      false,
				Score:       0,
				Issues:      []string{"gate error: " + gateErr.Cause.Error()},
				Suggestions: []string{},
			}
		} else {
			result.Score = clamp(result.Score)
			weighted += result.Score * g.Weight()
			totalWeight += g.Weight()
		}

		if g.Required() && !result.Passed {
			report.OverallPassed = false
		}
		if len(result.Suggestions) > 0 {
			report.Recommendations = append(report.Recommendations, recommendation(g.Name(), result.Suggestions))
		}
		report.GateResults[g.Name()] = result

		// Record gate outcome
		telemetry.AddEvent(ctx, "gate.evaluated", telemetry.GateAttrs(g.Name(), result.Passed, result.Score)...)
		if e.observer != nil {
			e.observer.GateEvaluated(phase, g.Name(), result, elapsed)
		}
	}

	// Weighted mean over gates that evaluated
	if totalWeight > 0 {
		report.OverallScore = clamp(weighted / totalWeight)
	}

	slog.DebugContext(ctx, "quality gates evaluated",
		"phase", phase,
		"score", report.OverallScore,
		"passed", report.OverallPassed,
	)
	telemetry.EndSpan(span, nil,
		telemetry.AttrOverall.Float64(report.OverallScore),
		telemetry.AttrSuccess.Bool(report.OverallPassed),
	)
	return report
}

// evaluate shields the engine from failing and panicking gates
func evaluate(ctx context.Context, g Gate, artifact types.Artifact, tctx types.TaskContext) (result types.QualityResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GateError{Gate: g.Name(), Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	result, err = g.Validate(ctx, artifact, tctx)
	if err != nil {
		err = &GateError{Gate: g.Name(), Cause: err}
	}
	return result, err
}

func recommendation(gate string, suggestions []string) string {
	return gate + ": " + strings.Join(suggestions, ", ")
}

func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return 0
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// weightedGate overrides weight and required flag of another gate
type weightedGate struct {
	Gate
	weight   float64
	required bool
}

func (w weightedGate) Weight() float64 { return w.weight }
func (w weightedGate) Required() bool  { return w.required }

// Override returns g with a different weight and required flag
func Override(g Gate, weight float64, required bool) Gate {
	return weightedGate{Gate: g, weight: weight, required: required}
}
