// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package agent defines the code-generation agent surface the workflow
// drives, and its OpenCode-backed implementation.
package agent

import (
	"context"

	"tddflow/pkg/types"
)

// Client is the agent surface consumed by the scanner, phases and orchestrator
type Client interface {
	// Query sends a prompt under the given persona and returns the agent reply.
	// A nil persona falls back to the task context system prompt.
	Query(ctx context.Context, prompt string, tctx types.TaskContext, persona *Persona) (*Response, error)

	// ExecuteCommand runs a shell command in the project and captures its output.
	ExecuteCommand(ctx context.Context, command string) (*CommandResult, error)

	// EditFile replaces the content of a project file.
	EditFile(ctx context.Context, path, content string) error
}

// Usage reports token consumption when the backend provides it
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the reply to a Query
type Response struct {
	Content  string         `json:"content"`
	Usage    *Usage         `json:"usage,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CommandResult captures one command execution
type CommandResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
}
