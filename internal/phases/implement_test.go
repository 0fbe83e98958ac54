// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package phases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tddflow/internal/agent"
	"tddflow/internal/agent/agenttest"
	"tddflow/internal/testparse"
	"tddflow/pkg/types"
)

const testCmd = "npm test"

func planResult() *types.PhaseResult {
	p := types.NewPhaseResult(types.PhasePlanTest)
	p.Success = true
	p.Output = "1. write add()"
	return p.Finish()
}

func TestImplementFix_FirstAttempt(t *testing.T) {
	root := project(t, map[string]string{"add.js": "x", "add.test.js": "y"})
	client := new(agenttest.MockClient)
	client.On("Query", mock.Anything, mock.Anything, mock.Anything, agenttest.PersonaRole(agent.ImplementationEngineer.Role)).
		Return(agenttest.Reply("implemented"), nil).Once()
	client.On("ExecuteCommand", mock.Anything, testCmd).Return(agenttest.Passing("3 tests passed"), nil).Once()

	res := NewImplementFix(client, newCollector()).Execute(context.Background(), planResult(), taskFor(root))

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "implemented", res.Output)
	assert.Equal(t, []string{"add.js"}, res.Artifacts)
	require.NotNil(t, res.TestResults)
	assert.Equal(t, 3, res.TestResults.Passed)
	assert.Equal(t, 1, res.Metadata["attempts"])
	assert.NotContains(t, res.Metadata, "modified_tests")

	prompt := client.Calls[0].Arguments.String(1)
	assert.Contains(t, prompt, "Plan Context:\n1. write add()")
	assert.Contains(t, prompt, "No test run yet.")
	client.AssertExpectations(t)
}

func TestImplementFix_StopsAtFirstPassingAttempt(t *testing.T) {
	root := project(t, map[string]string{"add.test.js": "y"})
	client := new(agenttest.MockClient)
	client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(agenttest.Reply("v1"), nil).Once()
	client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(agenttest.Reply("v2"), nil).Once()
	client.On("ExecuteCommand", mock.Anything, testCmd).Return(agenttest.Failing("1 test failed", "expected 3 got 4"), nil).Once()
	client.On("ExecuteCommand", mock.Anything, testCmd).Return(agenttest.Passing("1 test passed"), nil).Once()

	res := NewImplementFix(client, newCollector()).Execute(context.Background(), planResult(), taskFor(root))

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "v2", res.Output)
	client.AssertNumberOfCalls(t, "Query", 2)
	client.AssertNumberOfCalls(t, "ExecuteCommand", 2)

	retryPrompt := client.Calls[2].Arguments.String(1)
	assert.Contains(t, retryPrompt, "Test Results:\n1 tests failed. Errors: expected 3 got 4")
}

func TestImplementFix_ExhaustsAttempts(t *testing.T) {
	root := project(t, map[string]string{"add.test.js": "y"})
	client := new(agenttest.MockClient)
	client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(agenttest.Reply("try"), nil)
	client.On("ExecuteCommand", mock.Anything, testCmd).Return(agenttest.Failing("2 tests failed", "boom"), nil)

	res := NewImplementFix(client, newCollector()).Execute(context.Background(), planResult(), taskFor(root))

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "Failed after 3 attempts. Last error: 2 tests failed. Errors: boom", res.Error)
	assert.Empty(t, res.Artifacts)
	client.AssertNumberOfCalls(t, "Query", 3)
	client.AssertNumberOfCalls(t, "ExecuteCommand", 3)
}

func TestImplementFix_ErrorsFoldIntoLastError(t *testing.T) {
	t.Run("query errors", func(t *testing.T) {
		client := new(agenttest.MockClient)
		client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("query failed: rate limited"))

		res := NewImplementFix(client, newCollector(), WithMaxAttempts(2)).Execute(context.Background(), planResult(), taskFor(t.TempDir()))

		assert.False(t, res.Success)
		assert.Equal(t, 2, res.Attempts)
		assert.Equal(t, "Failed after 2 attempts. Last error: query failed: rate limited", res.Error)
		client.AssertNotCalled(t, "ExecuteCommand", mock.Anything, mock.Anything)
	})

	t.Run("test command errors", func(t *testing.T) {
		client := new(agenttest.MockClient)
		client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(agenttest.Reply("x"), nil)
		client.On("ExecuteCommand", mock.Anything, "make test").Return(nil, errors.New("command execution failed: no shell"))

		res := NewImplementFix(client, newCollector(), WithMaxAttempts(1), WithTestCommand("make test")).
			Execute(context.Background(), planResult(), taskFor(t.TempDir()))

		assert.Equal(t, "Failed after 1 attempts. Last error: 1 tests failed. Errors: command execution failed: no shell", res.Error)
	})
}

func TestImplementFix_CancelledContextStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := new(agenttest.MockClient)
	client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, context.Canceled)

	res := NewImplementFix(client, newCollector()).Execute(ctx, planResult(), taskFor(t.TempDir()))

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Contains(t, res.Error, "context canceled")
}

func TestImplementFix_GoParser(t *testing.T) {
	client := new(agenttest.MockClient)
	client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(agenttest.Reply("x"), nil)
	client.On("ExecuteCommand", mock.Anything, "go test ./...").Return(&agent.CommandResult{
		Stdout:   "--- FAIL: TestAdd (0.00s)\n    add_test.go:9: want 3\nFAIL\nFAIL\tcalc\t0.01s\n",
		ExitCode: 1,
	}, nil)

	res := NewImplementFix(client, newCollector(),
		WithMaxAttempts(2),
		WithTestCommand(DefaultTestCommand("go")),
		WithParser(testparse.ForLanguage("go")),
	).Execute(context.Background(), planResult(), taskFor(t.TempDir()))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Last error: 1 tests failed.\nTest Failures:")
	assert.Contains(t, res.Error, "TestAdd (add_test.go:9): want 3")

	// The second attempt is prompted with the per-test summary
	require.Len(t, client.Calls, 4)
	assert.Contains(t, client.Calls[2].Arguments.String(1), "TestAdd (add_test.go:9): want 3")
}

func TestImplementFix_ReportsModifiedTests(t *testing.T) {
	root := project(t, map[string]string{"add.test.js": "expect(add(1,2)).toBe(3)"})
	client := new(agenttest.MockClient)
	client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			_ = os.WriteFile(filepath.Join(root, "add.test.js"), []byte("expect(true).toBe(true)"), 0o600)
		}).
		Return(agenttest.Reply("done"), nil)
	client.On("ExecuteCommand", mock.Anything, testCmd).Return(agenttest.Passing("1 test passed"), nil)

	res := NewImplementFix(client, newCollector()).Execute(context.Background(), planResult(), taskFor(root))

	assert.True(t, res.Success)
	assert.Equal(t, []string{"add.test.js"}, res.Metadata["modified_tests"])
}

func TestImplementFix_NilPlan(t *testing.T) {
	client := new(agenttest.MockClient)
	client.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(agenttest.Reply("x"), nil)
	client.On("ExecuteCommand", mock.Anything, testCmd).Return(agenttest.Passing(""), nil)

	res := NewImplementFix(client, newCollector()).Execute(context.Background(), nil, taskFor(t.TempDir()))

	assert.True(t, res.Success)
}
