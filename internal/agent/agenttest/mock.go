// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package agenttest provides a testify mock of agent.Client.
package agenttest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tddflow/internal/agent"
	"tddflow/pkg/types"
)

// MockClient is a mock implementation of agent.Client.
type MockClient struct {
	mock.Mock
}

var _ agent.Client = (*MockClient)(nil)

// Query records the call. The persona argument is passed through as given (possibly nil).
func (m *MockClient) Query(ctx context.Context, prompt string, tctx types.TaskContext, persona *agent.Persona) (*agent.Response, error) {
	args := m.Called(ctx, prompt, tctx, persona)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Response), args.Error(1)
}

// ExecuteCommand records the call.
func (m *MockClient) ExecuteCommand(ctx context.Context, command string) (*agent.CommandResult, error) {
	args := m.Called(ctx, command)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.CommandResult), args.Error(1)
}

// EditFile records the call.
func (m *MockClient) EditFile(ctx context.Context, path, content string) error {
	args := m.Called(ctx, path, content)
	return args.Error(0)
}

// Reply is a shorthand for a successful query response.
func Reply(content string) *agent.Response {
	return &agent.Response{Content: content}
}

// Passing is a shorthand for a zero-exit command result.
func Passing(stdout string) *agent.CommandResult {
	return &agent.CommandResult{Stdout: stdout}
}

// Failing is a shorthand for a failed test command result.
func Failing(stdout, stderr string) *agent.CommandResult {
	return &agent.CommandResult{Stdout: stdout, Stderr: stderr, ExitCode: 1}
}

// PersonaRole matches a Query persona argument by role; an empty role matches nil.
func PersonaRole(role string) any {
	return mock.MatchedBy(func(p *agent.Persona) bool {
		if role == "" {
			return p == nil
		}
		return p != nil && p.Role == role
	})
}
