// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package metrics records workflow, phase, gate and scan metrics with
// Prometheus and serves them over HTTP.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tddflow/pkg/types"
)

const namespace = "tddflow"

// Status label values.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusDegraded = "degraded"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	WorkflowsTotal   *prometheus.CounterVec
	WorkflowDuration *prometheus.HistogramVec
	ActiveWorkflows  prometheus.Gauge
	QualityScore     prometheus.Histogram

	PhaseDuration     *prometheus.HistogramVec
	ImplementAttempts prometheus.Histogram

	GateEvaluations *prometheus.CounterVec
	GateScore       *prometheus.HistogramVec
	GateDuration    *prometheus.HistogramVec

	ScansTotal    *prometheus.CounterVec
	ScanFiles     prometheus.Histogram
	ScanConflicts prometheus.Histogram
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WorkflowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Workflows completed, by status.",
		}, []string{"status"}),
		WorkflowDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Wall time of complete workflows.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"status"}),
		ActiveWorkflows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workflows",
			Help:      "Workflows currently executing.",
		}),
		QualityScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_quality_score",
			Help:      "Overall quality score of finished workflows.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		PhaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "phase",
			Name:      "duration_seconds",
			Help:      "Wall time of each phase, by phase and status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"phase", "status"}),
		ImplementAttempts: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "phase",
			Name:      "implement_attempts",
			Help:      "Attempts used by the implement/fix loop.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		GateEvaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "evaluations_total",
			Help:      "Quality gate evaluations, by phase, gate and result.",
		}, []string{"phase", "gate", "result"}),
		GateScore: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "score",
			Help:      "Quality gate scores.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"gate"}),
		GateDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "duration_seconds",
			Help:      "Time spent evaluating each gate.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"gate"}),
		ScansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "total",
			Help:      "Codebase scans, by status.",
		}, []string{"status"}),
		ScanFiles: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "files",
			Help:      "Source files discovered per scan.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		ScanConflicts: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "conflict_risks",
			Help:      "Conflict risks reported per scan.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		}),
	}
}

// WorkflowStarted marks a workflow in flight.
func (m *Metrics) WorkflowStarted() {
	if m == nil {
		return
	}
	m.ActiveWorkflows.Inc()
}

// WorkflowFinished records a terminal result and releases the in-flight slot.
func (m *Metrics) WorkflowFinished(r *types.WorkflowResult) {
	if m == nil || r == nil {
		return
	}
	status := statusOf(r.Success)
	m.ActiveWorkflows.Dec()
	m.WorkflowsTotal.WithLabelValues(status).Inc()
	m.WorkflowDuration.WithLabelValues(status).Observe(r.Duration.Seconds())
	if len(r.QualityReports) > 0 {
		m.QualityScore.Observe(r.OverallQualityScore)
	}
}

// PhaseFinished records one phase.
func (m *Metrics) PhaseFinished(p *types.PhaseResult) {
	if m == nil || p == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(string(p.Name), statusOf(p.Success)).Observe(p.EndTime.Sub(p.StartTime).Seconds())
	if p.Name == types.PhaseImplementFix && p.Attempts > 0 {
		m.ImplementAttempts.Observe(float64(p.Attempts))
	}
}

// GateEvaluated implements gates.Observer.
func (m *Metrics) GateEvaluated(phase, gate string, result types.QualityResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "passed"
	if !result.Passed {
		outcome = "failed"
	}
	m.GateEvaluations.WithLabelValues(phase, gate, outcome).Inc()
	m.GateScore.WithLabelValues(gate).Observe(result.Score)
	m.GateDuration.WithLabelValues(gate).Observe(elapsed.Seconds())
}

// ScanFinished records a scan. degraded marks a scan that fell back to the
// empty result.
func (m *Metrics) ScanFinished(s *types.ScanResult, degraded bool) {
	if m == nil || s == nil {
		return
	}
	status := StatusSuccess
	if degraded {
		status = StatusDegraded
	}
	m.ScansTotal.WithLabelValues(status).Inc()
	m.ScanFiles.Observe(float64(s.TotalFiles))
	m.ScanConflicts.Observe(float64(len(s.ConflictRisks)))
}

func statusOf(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusFailure
}
