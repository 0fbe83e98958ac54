// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

import (
	"fmt"
	"time"
)

// PhaseName identifies a stage of the TDD workflow.
type PhaseName string

const (
	PhaseScan             PhaseName = "scan"
	PhasePlanTest         PhaseName = "plan-test"
	PhaseImplementFix     PhaseName = "implement-fix"
	PhaseRefactorDocument PhaseName = "refactor-document"
)

// TestResults is the structured outcome of one test run.
type TestResults struct {
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Failures []string      `json:"failures,omitempty"`
	Duration time.Duration `json:"duration"`
}

// PhaseResult is created by a phase executor and never mutated after the phase completes,
// except for the quality report the orchestrator attaches right after gating it.
type PhaseResult struct {
	Name      PhaseName `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Success   bool      `json:"success"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	Artifacts []string  `json:"artifacts"`

	// Attempts is the number of generate/test cycles (implement-fix only).
	Attempts int `json:"attempts,omitempty"`

	TestResults   *TestResults       `json:"test_results,omitempty"`
	QualityReport *QualityGateReport `json:"quality_report,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
}

// NewPhaseResult starts a phase record.
func NewPhaseResult(name PhaseName) *PhaseResult {
	return &PhaseResult{
		Name:      name,
		StartTime: time.Now(),
		Artifacts: []string{},
	}
}

// Finish stamps the end time.
func (p *PhaseResult) Finish() *PhaseResult {
	p.EndTime = time.Now()
	return p
}

// Fail marks the phase unsuccessful with the given message and stamps the end time.
func (p *PhaseResult) Fail(msg string) *PhaseResult {
	p.Success = false
	p.Error = msg
	return p.Finish()
}

// WorkflowResult is the terminal artifact of a run. Built incrementally by the
// orchestrator and read-only once the workflow terminates.
type WorkflowResult struct {
	WorkflowID      string         `json:"workflow_id"`
	TaskDescription string         `json:"task_description"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	Duration        time.Duration  `json:"duration"`
	Phases          []*PhaseResult `json:"phases"`
	Success         bool           `json:"success"`
	Error           string         `json:"error,omitempty"`
	Artifacts       []string       `json:"artifacts"`

	Scan                *ScanResult          `json:"codebase_scan,omitempty"`
	QualityReports      []*QualityGateReport `json:"quality_reports"`
	OverallQualityScore float64              `json:"overall_quality_score"`
	QualitySummary      string               `json:"quality_summary"`
}

// Metadata returns the audit map attached to a finished workflow.
func (w *WorkflowResult) Metadata() map[string]any {
	md := map[string]any{
		"quality_reports":       w.QualityReports,
		"overall_quality_score": w.OverallQualityScore,
		"quality_summary":       w.QualitySummary,
	}
	if w.Scan != nil {
		md["codebase_scan"] = w.Scan
	}
	return md
}

// Phase returns the recorded result for the named phase, or nil.
func (w *WorkflowResult) Phase(name PhaseName) *PhaseResult {
	for _, p := range w.Phases {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// LastPhase returns the most recently appended phase, or nil.
func (w *WorkflowResult) LastPhase() *PhaseResult {
	if len(w.Phases) == 0 {
		return nil
	}
	return w.Phases[len(w.Phases)-1]
}

// PhaseError aborts the workflow after a required phase failed.
type PhaseError struct {
	Phase   PhaseName
	Message string
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %s", e.Phase, e.Message)
}
