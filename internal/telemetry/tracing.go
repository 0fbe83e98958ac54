// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package telemetry wires OpenTelemetry tracing for workflows, phases,
// quality gates and agent calls.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer names used across the module
const (
	TracerOrchestrator = "tddflow/orchestrator"
	TracerGates        = "tddflow/gates"
	TracerScanner      = "tddflow/scanner"
	TracerAgent        = "tddflow/agent"
)

// TracerProvider owns the SDK provider installed as the global one
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// Config holds OpenTelemetry settings
type Config struct {
	ServiceName    string
	ServiceVersion string
	CollectorURL   string
	Environment    string
	SamplingRate   float64
}

// DefaultConfig returns settings for a local OTLP/HTTP collector
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "tddflow",
		ServiceVersion: "0.1.0",
		CollectorURL:   "localhost:4318", // OTLP HTTP endpoint (no protocol)
		Environment:    "development",
		SamplingRate:   1.0, // Sample all traces by default
	}
}

// NewTracerProvider creates the exporter and registers the provider globally
func NewTracerProvider(ctx context.Context, config *Config) (*TracerProvider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	// Describe the service on every span
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create OTLP HTTP exporter
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(config.CollectorURL),
		otlptracehttp.WithInsecure(), // plain HTTP
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// Child spans follow the parent's sampling decision
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SamplingRate))),
	)

	otel.SetTracerProvider(tp)

	// W3C trace context and baggage
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{provider: tp}, nil
}

// Shutdown flushes pending spans
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}

	// Give the provider time to export remaining spans
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return tp.provider.Shutdown(shutdownCtx)
}

// StartSpan starts a span on the named tracer
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// AddEvent adds an event to the current span
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// EndSpan records the outcome on span and ends it
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the trace id of the current span
func TraceID(ctx context.Context) string {
	return trace.SpanFromContext(ctx).SpanContext().TraceID().String()
}

// Common attribute keys for consistency
const (
	// Workflow and phase attributes
	AttrWorkflowID = attribute.Key("workflow.id")
	AttrTask       = attribute.Key("workflow.task")
	AttrPhase      = attribute.Key("phase.name")
	AttrAttempt    = attribute.Key("phase.attempt")

	// Quality gate and test attributes
	AttrGateName    = attribute.Key("gate.name")
	AttrGatePassed  = attribute.Key("gate.passed")
	AttrGateScore   = attribute.Key("gate.score")
	AttrOverall     = attribute.Key("quality.overall_score")
	AttrTestsPassed = attribute.Key("tests.passed")
	AttrTestsFailed = attribute.Key("tests.failed")

	// Codebase scan attributes
	AttrScanID     = attribute.Key("scan.id")
	AttrScanFiles  = attribute.Key("scan.total_files")
	AttrScanAssets = attribute.Key("scan.relevant_assets")

	// OpenCode agent attributes
	AttrSessionID = attribute.Key("agent.session_id")
	AttrModel     = attribute.Key("agent.model")
	AttrPersona   = attribute.Key("agent.persona")

	// General attributes
	AttrSuccess  = attribute.Key("success")
	AttrDuration = attribute.Key("duration_ms")
)

// GateAttrs describes one gate evaluation
func GateAttrs(name string, passed bool, score float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrGateName.String(name),
		AttrGatePassed.Bool(passed),
		AttrGateScore.Float64(score),
	}
}

// AgentAttrs describes an agent query
func AgentAttrs(sessionID, model, persona string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{AttrSessionID.String(sessionID)}
	if model != "" {
		attrs = append(attrs, AttrModel.String(model))
	}
	if persona != "" {
		attrs = append(attrs, AttrPersona.String(persona))
	}
	return attrs
}

// DurationAttr records a duration in milliseconds
func DurationAttr(d time.Duration) attribute.KeyValue {
	return AttrDuration.Int64(d.Milliseconds())
}
