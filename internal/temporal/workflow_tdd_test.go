// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package temporal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"tddflow/pkg/types"
)

func workflowInput(requireAck bool) TDDWorkflowInput {
	return TDDWorkflowInput{
		Task: "Create a function that adds two integers",
		Context: types.TaskContext{
			TaskDescription: "Create a function that adds two integers",
			ProjectPath:     "/tmp/project",
			MaxTurns:        3,
		},
		RequireAcknowledgment: requireAck,
		AcknowledgmentTimeout: time.Hour,
	}
}

func acknowledged(want bool) any {
	return mock.MatchedBy(func(in TDDWorkflowInput) bool { return in.Acknowledged == want })
}

func reviewedScan(id string) any {
	return mock.MatchedBy(func(in TDDWorkflowInput) bool {
		return in.Acknowledged && in.Scan != nil && in.Scan.ScanID == id
	})
}

func TestTDDWorkflow_RunsWithoutAcknowledgment(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	acts := &Activities{}
	env.RegisterActivity(acts)
	env.OnActivity(acts.RunTDDWorkflow, mock.Anything, mock.MatchedBy(func(in TDDWorkflowInput) bool {
		return in.Acknowledged && in.Scan == nil
	})).
		Return(&types.WorkflowResult{WorkflowID: "wf-1", Success: true, QualitySummary: "Quality Score: 90.0% | Gates Passed: 3/3"}, nil).Once()

	env.ExecuteWorkflow(TDDWorkflow, workflowInput(false))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result types.WorkflowResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "wf-1", result.WorkflowID)
	env.AssertExpectations(t)
}

func TestTDDWorkflow_WaitsForAcknowledgment(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	acts := &Activities{}
	env.RegisterActivity(acts)
	env.OnActivity(acts.ScanCodebase, mock.Anything, mock.Anything).
		Return(&types.ScanResult{ScanID: "scan_1"}, nil).Once()
	env.OnActivity(acts.RunTDDWorkflow, mock.Anything, reviewedScan("scan_1")).
		Return(&types.WorkflowResult{Success: true, Scan: &types.ScanResult{ScanID: "scan_1"}}, nil).Once()

	env.RegisterDelayedCallback(func() {
		res, err := env.QueryWorkflow(StatusQuery)
		require.NoError(t, err)
		var status WorkflowStatus
		require.NoError(t, res.Get(&status))
		assert.Equal(t, StageAwaitingAck, status.Stage)
		require.NotNil(t, status.Scan)
		assert.Equal(t, "scan_1", status.Scan.ScanID)

		env.SignalWorkflow(AcknowledgeSignal, true)
	}, time.Minute)

	env.ExecuteWorkflow(TDDWorkflow, workflowInput(true))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result types.WorkflowResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.NotNil(t, result.Scan)
	assert.Equal(t, "scan_1", result.Scan.ScanID)
	env.AssertExpectations(t)
}

func TestTDDWorkflow_AcknowledgmentTimeoutRejects(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	acts := &Activities{}
	env.RegisterActivity(acts)
	env.OnActivity(acts.ScanCodebase, mock.Anything, mock.Anything).
		Return(&types.ScanResult{ScanID: "scan_1"}, nil).Once()
	env.OnActivity(acts.RunTDDWorkflow, mock.Anything, acknowledged(false)).
		Return(&types.WorkflowResult{Error: "CRITICAL: Agent must acknowledge codebase scan results before proceeding"}, nil).Once()

	env.ExecuteWorkflow(TDDWorkflow, workflowInput(true))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result types.WorkflowResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "acknowledge")

	res, err := env.QueryWorkflow(StatusQuery)
	require.NoError(t, err)
	var status WorkflowStatus
	require.NoError(t, res.Get(&status))
	assert.Equal(t, StageRejected, status.Stage)
}

func TestTDDWorkflow_ScanActivityFailure(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	acts := &Activities{}
	env.RegisterActivity(acts)
	env.OnActivity(acts.ScanCodebase, mock.Anything, mock.Anything).
		Return(nil, errors.New("disk unavailable"))

	env.ExecuteWorkflow(TDDWorkflow, workflowInput(true))

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan activity failed")
}

func TestActivityOptions(t *testing.T) {
	run := GetNonIdempotentActivityOptions()
	assert.Equal(t, int32(1), run.RetryPolicy.MaximumAttempts)
	assert.Equal(t, DefaultHeartbeatTimeout, run.HeartbeatTimeout)

	scan := GetScanActivityOptions()
	assert.Equal(t, int32(ScanMaxAttempts), scan.RetryPolicy.MaximumAttempts)
	assert.Equal(t, ScanStartToCloseTimeout, scan.StartToCloseTimeout)
}
