// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bitfield/script"
)

// ErrEmptyCommand is returned when ExecuteCommand receives a blank command.
var ErrEmptyCommand = errors.New("command is required")

// CommandRunner executes shell commands in a working directory using bitfield/script.
// A non-zero exit status is reported through CommandResult.ExitCode, not as an error.
type CommandRunner struct {
	dir   string
	shell string
}

// NewCommandRunner creates a runner rooted at dir. An empty dir runs in the
// current working directory.
func NewCommandRunner(dir string) *CommandRunner {
	return &CommandRunner{dir: dir, shell: "sh"}
}

// Dir returns the working directory commands run in.
func (r *CommandRunner) Dir() string {
	return r.dir
}

// Run executes command through the shell. Cancelling ctx returns early with
// ctx.Err(); the child process is left to finish on its own.
func (r *CommandRunner) Run(ctx context.Context, command string) (*CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := command
	if r.dir != "" {
		line = "cd " + shellQuote(r.dir) + " && " + command
	}

	type outcome struct {
		res *CommandResult
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		start := time.Now()
		var stderr bytes.Buffer

		p := script.NewPipe().WithStderr(&stderr).Exec(r.shell + " -c " + shellQuote(line))
		stdout, err := p.String()

		res := &CommandResult{
			Stdout:     stdout,
			Stderr:     stderr.String(),
			ExitCode:   p.ExitStatus(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		// Exec reports a non-zero exit as an error; only a failure to start is fatal.
		if err != nil && res.ExitCode == 0 {
			done <- outcome{err: fmt.Errorf("start %q: %w", command, err)}
			return
		}
		done <- outcome{res: res}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err == nil {
			slog.DebugContext(ctx, "command finished",
				"command", command,
				"exit_code", out.res.ExitCode,
				"duration_ms", out.res.DurationMs,
			)
		}
		return out.res, out.err
	}
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
