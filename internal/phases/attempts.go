// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package phases

// AttemptBudget counts generate/test cycles against a fixed maximum.
type AttemptBudget struct {
	max  int
	used int
}

// NewAttemptBudget creates a budget of limit attempts. Values below one allow a single attempt.
func NewAttemptBudget(limit int) *AttemptBudget {
	if limit < 1 {
		limit = 1
	}
	return &AttemptBudget{max: limit}
}

// Next consumes one attempt and reports whether it was available.
func (b *AttemptBudget) Next() bool {
	if b.used >= b.max {
		return false
	}
	b.used++
	return true
}

// Max returns the configured number of attempts.
func (b *AttemptBudget) Max() int { return b.max }

// Used returns the attempts consumed so far.
func (b *AttemptBudget) Used() int { return b.used }

// Remaining returns the attempts left.
func (b *AttemptBudget) Remaining() int { return b.max - b.used }

// Exhausted reports whether no attempt is left.
func (b *AttemptBudget) Exhausted() bool { return b.used >= b.max }
