// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package prompts builds the agent prompts of each TDD phase.
package prompts

import (
	"fmt"
	"strings"

	"tddflow/internal/agent"
	"tddflow/pkg/types"
)

const autoDetect = "auto-detect"

// maxScanAssetsInPrompt bounds the asset lines listed in the planning prompt.
const maxScanAssetsInPrompt = 10

// Contextual frames task with the persona's profile and the project context.
func Contextual(persona agent.Persona, task string, tctx types.TaskContext, additional string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are a %s with deep expertise in: %s.\n\n", persona.Role, strings.Join(persona.Expertise, ", ")))
	sb.WriteString(fmt.Sprintf("Your approach: %s\n", persona.Approach))
	sb.WriteString(fmt.Sprintf("Your quality standards: %s\n", strings.Join(persona.QualityStandards, ", ")))
	sb.WriteString(fmt.Sprintf("Expected output: %s\n\n", persona.OutputFormat))

	sb.WriteString(fmt.Sprintf("Task: %s\n\n", task))

	sb.WriteString("Context:\n")
	sb.WriteString(fmt.Sprintf("- Language: %s\n", orAutoDetect(tctx.Language)))
	sb.WriteString(fmt.Sprintf("- Framework: %s\n", orAutoDetect(tctx.Framework)))
	sb.WriteString(fmt.Sprintf("- Project Path: %s\n", tctx.ProjectPath))

	if additional = strings.TrimSpace(additional); additional != "" {
		sb.WriteString("\nAdditional Context:\n")
		sb.WriteString(additional)
		sb.WriteString("\n")
	}

	sb.WriteString("\nPlease provide your expert analysis and implementation following your specialized approach and quality standards.")
	return sb.String()
}

// PlanAndTest asks the planning analyst for a plan and failing tests,
// informed by the codebase scan.
func PlanAndTest(task string, tctx types.TaskContext, scan *types.ScanResult) string {
	var sb strings.Builder

	if scan != nil {
		writeScanFindings(&sb, scan)
	}

	sb.WriteString(`Please provide:
1. **Implementation Plan**: A clear, step-by-step plan with risk analysis
2. **Test Suite**: Comprehensive tests covering:
   - Happy path scenarios with clear success criteria
   - Edge cases and boundary conditions
   - Error conditions and failure modes
   - Integration points and dependencies
   - Performance considerations
3. **Success Criteria**: Measurable completion criteria
4. **Risk Assessment**: Potential issues and mitigation strategies

Use your file editing capabilities to create the test files.
Focus on failing tests first, then outline the implementation needed.
Ensure comprehensive coverage and clear acceptance criteria for each test.`)

	return Contextual(agent.PlanningAnalyst, task, tctx, sb.String())
}

// Implementation asks for the minimal code that makes the planned tests pass.
// lastError carries the failure summary of the previous attempt, if any.
func Implementation(plan, lastError string, tctx types.TaskContext) string {
	var sb strings.Builder

	sb.WriteString("Based on the following plan and test failures:\n\n")
	sb.WriteString("Plan Context:\n")
	sb.WriteString(plan)
	sb.WriteString("\n\nTest Results:\n")
	if lastError == "" {
		sb.WriteString("No test run yet.")
	} else {
		sb.WriteString(lastError)
	}
	sb.WriteString(`

Write the minimal, clean implementation to make all tests pass.
Use your file editing capabilities to create/modify the implementation files.
Do not modify the test files.

Implementation Guidelines:
- Write only the code needed to pass tests (no over-engineering)
- Follow established project patterns and conventions
- Include proper error handling and input validation
- Maintain clean, readable code structure
- Add clear, concise comments for complex logic`)

	return Contextual(agent.ImplementationEngineer, "Implement code to pass tests", tctx, sb.String())
}

// Refactor asks the reviewer to improve and document the implementation
// without breaking its tests.
func Refactor(implementation string, tctx types.TaskContext) string {
	var sb strings.Builder

	sb.WriteString("Review and improve the following implementation:\n\n")
	sb.WriteString(implementation)
	sb.WriteString(`

Quality Improvement Tasks:
1. **Refactor** for better readability and maintainability
2. **Document** with clear comments, docstrings, and usage examples
3. **Optimize** for performance where appropriate
4. **Validate** that all tests still pass after changes
5. **Structure** code for long-term maintainability
6. **Review** for security considerations and best practices

Use your file editing capabilities to apply improvements.
Focus on code quality, documentation, and maintainability improvements.`)

	return Contextual(agent.QualityReviewer, "Refactor and document code", tctx, sb.String())
}

// Improvement turns gate recommendations into a follow-up request.
func Improvement(recommendations []string) string {
	var sb strings.Builder

	sb.WriteString("Based on the quality analysis, please apply the following improvements:\n")
	for _, rec := range recommendations {
		sb.WriteString(fmt.Sprintf("- %s\n", rec))
	}
	sb.WriteString(`
Focus on:
- Fixing syntax issues
- Improving test coverage
- Adding necessary documentation
- Optimizing code structure`)

	return sb.String()
}

func writeScanFindings(sb *strings.Builder, scan *types.ScanResult) {
	sb.WriteString("Codebase Scan Findings:\n")
	sb.WriteString(fmt.Sprintf("- Files scanned: %d\n", scan.TotalFiles))
	sb.WriteString(fmt.Sprintf("- Relevant assets: %d\n", len(scan.RelevantAssets)))

	writeAssets(sb, "Reuse opportunities (prefer extending these)", scan.ReuseOpportunities)
	writeAssets(sb, "Conflict risks (do not duplicate these)", scan.ConflictRisks)

	if len(scan.Recommendations) > 0 {
		sb.WriteString("Recommendations:\n")
		for _, rec := range scan.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", rec))
		}
	}
	sb.WriteString("\n")
}

func writeAssets(sb *strings.Builder, title string, assets []types.AssetReference) {
	if len(assets) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	for i, a := range assets {
		if i == maxScanAssetsInPrompt {
			sb.WriteString(fmt.Sprintf("- ... and %d more\n", len(assets)-i))
			break
		}
		sb.WriteString(fmt.Sprintf("- %s %s (%s:%d)\n", a.Type, a.Name, a.FilePath, a.LineNumber))
	}
}

func orAutoDetect(s string) string {
	if s == "" {
		return autoDetect
	}
	return s
}
