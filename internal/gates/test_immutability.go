// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package gates

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"tddflow/pkg/types"
)

// TestSnapshot fingerprints the test files written during planning so the
// implementation phase can detect tests that were edited to pass.
type TestSnapshot struct {
	hashes map[string]string
}

// NewTestSnapshot records a SHA-256 hash per test file.
func NewTestSnapshot(testFiles []types.FileContent) *TestSnapshot {
	s := &TestSnapshot{hashes: make(map[string]string, len(testFiles))}
	for _, f := range testFiles {
		s.hashes[f.Path] = hashContent(f.Content)
	}
	return s
}

// Len returns the number of fingerprinted files.
func (s *TestSnapshot) Len() int {
	return len(s.hashes)
}

// Modified returns the sorted paths of snapshotted tests that changed or
// disappeared in current. New test files are not reported.
func (s *TestSnapshot) Modified(current []types.FileContent) []string {
	seen := make(map[string]string, len(current))
	for _, f := range current {
		seen[f.Path] = hashContent(f.Content)
	}

	var changed []string
	for path, original := range s.hashes {
		if now, ok := seen[path]; !ok || now != original {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
