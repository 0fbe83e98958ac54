// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Task context limits.
const (
	MinTaskDescriptionLength = 10
	MaxTaskDescriptionLength = 1000
	MinMaxTurns              = 1
	MaxMaxTurns              = 10
	DefaultMaxTurns          = 3
)

// taskValidate is shared; validator.Validate caches struct metadata and is safe for concurrent use.
var taskValidate = validator.New()

// TaskContext is the immutable input of a workflow run.
type TaskContext struct {
	// TaskDescription is the natural-language task (10-1000 chars).
	TaskDescription string `json:"task_description" yaml:"task_description" validate:"min=10,max=1000"`

	// ProjectPath is the root directory of the project the agent works in.
	ProjectPath string `json:"project_path" yaml:"project_path" validate:"required"`

	// Language is the primary language of the project (optional).
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Framework is the test/application framework in use (optional).
	Framework string `json:"framework,omitempty" yaml:"framework,omitempty"`

	// MaxTurns bounds the agent turns per query (1-10, default 3).
	MaxTurns int `json:"max_turns" yaml:"max_turns" validate:"min=1,max=10"`

	// SystemPrompt overrides the agent system prompt when no persona is given.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
}

// WithDefaults returns a copy with unset optional fields filled in.
func (c TaskContext) WithDefaults() TaskContext {
	if c.MaxTurns == 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	return c
}

// Validate checks the context against its field rules. The returned error is a
// *ValidationError listing every violated field.
func (c TaskContext) Validate() error {
	err := taskValidate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: []string{err.Error()}}
	}

	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		ve.Fields = append(ve.Fields, describeFieldError(fe))
	}
	return ve
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Field() {
	case "TaskDescription":
		if fe.Tag() == "min" {
			return fmt.Sprintf("task description must be at least %d characters", MinTaskDescriptionLength)
		}
		return "task description too long"
	case "ProjectPath":
		return "project path is required"
	case "MaxTurns":
		return fmt.Sprintf("max turns must be between %d and %d", MinMaxTurns, MaxMaxTurns)
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// ValidationError reports a malformed TaskContext.
type ValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation error: " + strings.Join(e.Fields, ", ")
}
