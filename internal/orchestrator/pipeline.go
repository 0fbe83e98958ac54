// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package orchestrator

import (
	"fmt"

	"github.com/gammazero/toposort"

	"tddflow/pkg/types"
)

// Step declares a pipeline phase and the phases it must run after.
type Step struct {
	Name  types.PhaseName
	After []types.PhaseName
}

// DefaultSteps is the scan → plan → implement → refactor chain.
var DefaultSteps = []Step{
	{Name: types.PhaseScan},
	{Name: types.PhasePlanTest, After: []types.PhaseName{types.PhaseScan}},
	{Name: types.PhaseImplementFix, After: []types.PhaseName{types.PhasePlanTest}},
	{Name: types.PhaseRefactorDocument, After: []types.PhaseName{types.PhaseImplementFix}},
}

// PhasePlan is a resolved execution order.
type PhasePlan struct {
	order []types.PhaseName
}

// NewPhasePlan resolves steps into a safe execution order. Unknown
// dependencies, duplicate names and cycles are rejected.
func NewPhasePlan(steps []Step) (*PhasePlan, error) {
	known := make(map[types.PhaseName]bool, len(steps))
	for _, s := range steps {
		if known[s.Name] {
			return nil, fmt.Errorf("duplicate phase %q", s.Name)
		}
		known[s.Name] = true
	}

	edges := make([]toposort.Edge, 0)
	for _, s := range steps {
		for _, dep := range s.After {
			if !known[dep] {
				return nil, fmt.Errorf("phase %q depends on unknown phase %q", s.Name, dep)
			}
			edges = append(edges, toposort.Edge{string(dep), string(s.Name)})
		}
	}

	order := make([]types.PhaseName, 0, len(steps))
	if len(edges) == 0 {
		for _, s := range steps {
			order = append(order, s.Name)
		}
		return &PhasePlan{order: order}, nil
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("cycle detected in phase plan: %w", err)
	}

	inSorted := make(map[types.PhaseName]bool, len(sorted))
	for _, node := range sorted {
		name := types.PhaseName(node.(string))
		inSorted[name] = true
		order = append(order, name)
	}

	// Steps outside the dependency graph run first, in declaration order.
	var roots []types.PhaseName
	for _, s := range steps {
		if !inSorted[s.Name] {
			roots = append(roots, s.Name)
		}
	}
	return &PhasePlan{order: append(roots, order...)}, nil
}

// DefaultPhasePlan resolves DefaultSteps.
func DefaultPhasePlan() *PhasePlan {
	plan, err := NewPhasePlan(DefaultSteps)
	if err != nil {
		panic(err)
	}
	return plan
}

// Order returns a copy of the execution order.
func (p *PhasePlan) Order() []types.PhaseName {
	out := make([]types.PhaseName, len(p.order))
	copy(out, p.order)
	return out
}
