// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package temporal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
	"go.temporal.io/sdk/testsuite"

	"tddflow/internal/agent"
	"tddflow/internal/agent/agenttest"
	"tddflow/internal/orchestrator"
	"tddflow/internal/scanner"
	"tddflow/pkg/types"
)

func projectInput(t *testing.T) TDDWorkflowInput {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "calc.go"),
		[]byte("package calc\n\n// Add returns a+b.\nfunc Add(a, b int) int { return a + b }\n"), 0o600))
	in := workflowInput(false)
	in.Context.ProjectPath = root
	return in
}

func TestActivities_ScanCodebase(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	acts := NewActivities(nil, scanner.New(scanner.DefaultConfig()))
	env.RegisterActivity(acts)

	val, err := env.ExecuteActivity(acts.ScanCodebase, projectInput(t))
	require.NoError(t, err)

	var scan types.ScanResult
	require.NoError(t, val.Get(&scan))
	assert.Equal(t, 1, scan.TotalFiles)
	assert.NotEmpty(t, scan.ScanID)
	assert.Contains(t, scan.Recommendations, scanner.RecommendationMandatory)
}

func TestActivities_ScanCodebaseRejectsInvalidContext(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	acts := NewActivities(nil, nil)
	env.RegisterActivity(acts)

	in := workflowInput(false)
	in.Context.ProjectPath = ""
	_, err := env.ExecuteActivity(acts.ScanCodebase, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project path is required")
}

func TestActivities_RunTDDWorkflowHonoursAcknowledgment(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	agentClient := new(agenttest.MockClient)
	var gotProject string
	acts := NewActivities(func(projectPath string) agent.Client {
		gotProject = projectPath
		return agentClient
	}, nil, orchestrator.WithMaxAttempts(1))
	env.RegisterActivity(acts)

	in := projectInput(t)
	in.Acknowledged = false
	val, err := env.ExecuteActivity(acts.RunTDDWorkflow, in)
	require.NoError(t, err)

	var result types.WorkflowResult
	require.NoError(t, val.Get(&result))
	assert.False(t, result.Success)
	assert.Equal(t, orchestrator.ErrScanNotAcknowledged.Error(), result.Error)
	assert.NotNil(t, result.Scan)
	assert.Equal(t, in.Context.ProjectPath, gotProject)
	agentClient.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestActivities_RunTDDWorkflowKeepsReviewedScan(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	agentClient := new(agenttest.MockClient)
	acts := NewActivities(func(string) agent.Client { return agentClient }, nil)
	env.RegisterActivity(acts)

	in := projectInput(t)
	in.Scan = &types.ScanResult{
		ScanID:          "scan_reviewed",
		ProjectPath:     in.Context.ProjectPath,
		Recommendations: []string{scanner.RecommendationMandatory},
	}
	val, err := env.ExecuteActivity(acts.RunTDDWorkflow, in)
	require.NoError(t, err)

	var result types.WorkflowResult
	require.NoError(t, val.Get(&result))
	require.NotNil(t, result.Scan)
	assert.Equal(t, "scan_reviewed", result.Scan.ScanID)
	assert.Equal(t, orchestrator.ErrScanNotAcknowledged.Error(), result.Error)
}

func TestActivities_RunTDDWorkflowWithoutFactory(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	acts := NewActivities(nil, nil)
	env.RegisterActivity(acts)

	_, err := env.ExecuteActivity(acts.RunTDDWorkflow, projectInput(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no agent client factory")
}

func TestWorkerOptions_Defaults(t *testing.T) {
	_, err := WorkerOptions{}.withDefaults()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task_queue")

	opts, err := WorkerOptions{TaskQueue: "tdd"}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, "localhost:7233", opts.HostPort)
	assert.Equal(t, "default", opts.Namespace)
	assert.Equal(t, 4, opts.MaxConcurrent)
}

func TestNewTemporalWorker_Validation(t *testing.T) {
	w, err := NewTemporalWorker(WorkerOptions{}, NewActivities(nil, nil))
	assert.Nil(t, w)
	assert.ErrorContains(t, err, "task_queue")

	w, err = NewTemporalWorker(WorkerOptions{TaskQueue: "tdd"}, nil)
	assert.Nil(t, w)
	assert.ErrorContains(t, err, "activities are required")
}

func TestSubmit(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(run, nil).Once()

	got, err := Submit(context.Background(), c, "tdd", workflowInput(false))
	require.NoError(t, err)
	assert.Same(t, run, got)

	opts, ok := c.Calls[0].Arguments.Get(1).(client.StartWorkflowOptions)
	require.True(t, ok)
	assert.Equal(t, "tdd", opts.TaskQueue)
	assert.True(t, strings.HasPrefix(opts.ID, "tdd-"))
	c.AssertExpectations(t)

	_, err = Submit(context.Background(), c, "", workflowInput(false))
	assert.ErrorContains(t, err, "task_queue")
}
