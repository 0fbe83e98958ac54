// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package phases

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tddflow/internal/scanner"
	"tddflow/pkg/types"
)

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return root
}

func taskFor(root string) types.TaskContext {
	return types.TaskContext{
		TaskDescription: "Create a function that adds two integers",
		ProjectPath:     root,
		MaxTurns:        3,
	}
}

func newCollector() *Collector {
	return NewCollector(scanner.DefaultConfig())
}
