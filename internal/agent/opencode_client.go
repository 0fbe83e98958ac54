// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sst/opencode-sdk-go"
	"github.com/sst/opencode-sdk-go/option"

	"tddflow/internal/telemetry"
	"tddflow/pkg/types"
)

var (
	// ErrEmptyPath is returned by EditFile for a blank path
	ErrEmptyPath = errors.New("file path is required")

	// ErrPathEscape is returned by EditFile for paths outside the project root
	ErrPathEscape = errors.New("path escapes project root")
)

// Options configures an OpenCodeClient
type Options struct {
	// BaseURL of the running `opencode serve` instance
	BaseURL string

	// Model in provider/model form, e.g. "anthropic/claude-sonnet-4-5"
	Model string

	// Agent is the OpenCode agent name ("build", "plan", ...)
	Agent string

	// ProjectPath is where commands run and files are edited
	ProjectPath string

	// ReuseSession keeps one session across queries, for at most
	// TaskContext.MaxTurns prompts before a fresh session is started. Such a
	// client must not be shared between concurrent workflows.
	ReuseSession bool
}

// OpenCodeClient implements Client on top of an OpenCode server. Queries go
// through the SDK session API; commands and file edits run locally in the
// project directory.
type OpenCodeClient struct {
	sdk     *opencode.Client
	opts    Options
	runner  *CommandRunner
	session string
	turns   int
}

// NewOpenCodeClient creates a client for the server at opts.BaseURL
func NewOpenCodeClient(opts Options) *OpenCodeClient {
	sdk := opencode.NewClient(
		option.WithBaseURL(opts.BaseURL),
	)
	return &OpenCodeClient{
		sdk:    sdk,
		opts:   opts,
		runner: NewCommandRunner(opts.ProjectPath),
	}
}

// Query validates tctx, resolves the system prompt and sends the prompt to a session
func (c *OpenCodeClient) Query(ctx context.Context, prompt string, tctx types.TaskContext, persona *Persona) (*Response, error) {
	tctx = tctx.WithDefaults()
	if err := tctx.Validate(); err != nil {
		return nil, err
	}

	role := ""
	if persona != nil {
		role = persona.Role
	}
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerAgent, "agent.query")
	start := time.Now()

	resp, sessionID, err := c.query(ctx, prompt, tctx, persona)
	attrs := append(telemetry.AgentAttrs(sessionID, c.opts.Model, role), telemetry.DurationAttr(time.Since(start)))
	telemetry.EndSpan(span, err, attrs...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return resp, nil
}

func (c *OpenCodeClient) query(ctx context.Context, prompt string, tctx types.TaskContext, persona *Persona) (*Response, string, error) {
	sessionID, turn, err := c.sessionFor(ctx, tctx)
	if err != nil {
		return nil, "", err
	}

	var parts []opencode.SessionPromptParamsPartUnion
	if system := SystemPromptFor(persona, tctx); system != "" {
		parts = append(parts, textPart(system))
	}
	parts = append(parts, textPart(prompt))

	params := opencode.SessionPromptParams{
		Parts: opencode.F(parts),
	}
	if provider, model, ok := splitModel(c.opts.Model); ok {
		params.Model = opencode.F(opencode.SessionPromptParamsModel{
			ProviderID: opencode.F(provider),
			ModelID:    opencode.F(model),
		})
	}
	if c.opts.Agent != "" {
		params.Agent = opencode.F(c.opts.Agent)
	}

	message, err := c.sdk.Session.Prompt(ctx, sessionID, params)
	if err != nil {
		return nil, sessionID, fmt.Errorf("failed to send prompt: %w", err)
	}

	var text strings.Builder
	for _, part := range message.Parts {
		if part.Type == opencode.PartTypeText {
			text.WriteString(part.Text)
		}
	}

	slog.DebugContext(ctx, "agent replied", "session_id", sessionID, "chars", text.Len())
	return &Response{
		Content: text.String(),
		Metadata: map[string]any{
			"session_id": sessionID,
			"message_id": message.Info.ID,
			"turn":       turn,
			"max_turns":  tctx.MaxTurns,
		},
	}, sessionID, nil
}

// sessionFor returns the session for the next prompt and its turn number
// A reused session is replaced once it has served tctx.MaxTurns prompts.
func (c *OpenCodeClient) sessionFor(ctx context.Context, tctx types.TaskContext) (string, int, error) {
	if c.opts.ReuseSession && c.session != "" {
		if c.turns < tctx.MaxTurns {
			c.turns++
			return c.session, c.turns, nil
		}
		slog.DebugContext(ctx, "session turn limit reached", "session_id", c.session, "max_turns", tctx.MaxTurns)
		if err := c.DeleteSession(ctx); err != nil {
			slog.WarnContext(ctx, "could not delete exhausted session", "error", err)
			c.session = ""
		}
	}

	session, err := c.sdk.Session.New(ctx, opencode.SessionNewParams{
		Title: opencode.F(sessionTitle(tctx.TaskDescription)),
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to create session: %w", err)
	}
	if c.opts.ReuseSession {
		c.session = session.ID
		c.turns = 1
	}
	return session.ID, 1, nil
}

// ExecuteCommand runs command in the project directory
func (c *OpenCodeClient) ExecuteCommand(ctx context.Context, command string) (*CommandResult, error) {
	res, err := c.runner.Run(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("command execution failed: %w", err)
	}
	return res, nil
}

// EditFile writes content to path, relative to the project root
func (c *OpenCodeClient) EditFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := resolveProjectPath(c.opts.ProjectPath, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.DebugContext(ctx, "file edited", "path", path, "bytes", len(content))
	return nil
}

// DeleteSession removes the reused session, if any
func (c *OpenCodeClient) DeleteSession(ctx context.Context) error {
	if c.session == "" {
		return nil
	}
	if _, err := c.sdk.Session.Delete(ctx, c.session, opencode.SessionDeleteParams{}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	c.session = ""
	c.turns = 0
	return nil
}

func textPart(text string) opencode.TextPartInputParam {
	return opencode.TextPartInputParam{
		Type: opencode.F(opencode.TextPartInputTypeText),
		Text: opencode.F(text),
	}
}

// splitModel splits "provider/model"
func splitModel(s string) (provider, model string, ok bool) {
	provider, model, ok = strings.Cut(s, "/")
	if !ok || provider == "" || model == "" {
		return "", "", false
	}
	return provider, model, true
}

func sessionTitle(task string) string {
	const maxTitle = 60
	title := strings.Join(strings.Fields(task), " ")
	if r := []rune(title); len(r) > maxTitle {
		title = string(r[:maxTitle]) + "..."
	}
	return "tddflow: " + title
}

// resolveProjectPath joins rel onto root and rejects results outside root
func resolveProjectPath(root, rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", ErrEmptyPath
	}
	if root == "" {
		root = "."
	}
	full := rel
	if !filepath.IsAbs(rel) {
		full = filepath.Join(root, rel)
	}
	full = filepath.Clean(full)

	back, err := filepath.Rel(filepath.Clean(root), full)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return full, nil
}
