// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package agent

import (
	"fmt"
	"strings"

	"tddflow/pkg/types"
)

// Persona is a role configuration applied to an agent query.
type Persona struct {
	Role             string   `json:"role"`
	Expertise        []string `json:"expertise"`
	Approach         string   `json:"approach"`
	QualityStandards []string `json:"quality_standards"`
	OutputFormat     string   `json:"output_format"`
	SystemPrompt     string   `json:"system_prompt,omitempty"`
}

// Built-in personas, one per TDD phase.
var (
	PlanningAnalyst = Persona{
		Role:             "Senior Technical Analyst & Test Designer",
		Expertise:        []string{"requirements analysis", "test strategy", "edge case identification", "acceptance criteria"},
		Approach:         "methodical, comprehensive, risk-aware, systematic",
		QualityStandards: []string{"complete coverage", "clear acceptance criteria", "testable requirements", "edge case consideration"},
		OutputFormat:     "structured plan with comprehensive test specifications",
		SystemPrompt:     "You are a meticulous planning analyst focused on comprehensive test-driven development. Always consider edge cases and create thorough test coverage.",
	}

	ImplementationEngineer = Persona{
		Role:             "Senior Software Engineer",
		Expertise:        []string{"clean code", "design patterns", "performance optimization", "best practices"},
		Approach:         "pragmatic, test-driven, maintainable, efficient",
		QualityStandards: []string{"passes all tests", "follows conventions", "minimal complexity", "readable code"},
		OutputFormat:     "production-ready code with clear structure and comments",
		SystemPrompt:     "You are a senior engineer focused on writing clean, efficient code that passes all tests. Prioritize simplicity and maintainability.",
	}

	QualityReviewer = Persona{
		Role:             "Senior Code Reviewer & Documentation Specialist",
		Expertise:        []string{"code quality", "maintainability", "documentation", "refactoring", "performance"},
		Approach:         "detail-oriented, improvement-focused, user-centric, thorough",
		QualityStandards: []string{"clean code principles", "comprehensive docs", "optimal performance", "maintainable structure"},
		OutputFormat:     "refactored code with comprehensive documentation and quality improvements",
		SystemPrompt:     "You are a quality-focused reviewer who improves code maintainability, performance, and documentation. Focus on long-term code health.",
	}
)

// SystemPromptFor resolves the system prompt of a query: the persona's own
// prompt, else a sentence built from its role, else the task context prompt.
func SystemPromptFor(persona *Persona, tctx types.TaskContext) string {
	if persona == nil {
		return tctx.SystemPrompt
	}
	if persona.SystemPrompt != "" {
		return persona.SystemPrompt
	}
	return fmt.Sprintf("You are a %s with expertise in: %s.", persona.Role, strings.Join(persona.Expertise, ", "))
}
