// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package phases

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tddflow/internal/scanner"
	"tddflow/pkg/types"
)

// DefaultMaxArtifactFiles caps how many implementation files, and separately
// how many test files, an artifact carries.
const DefaultMaxArtifactFiles = 200

// Collector reads the project tree into gate artifacts, using the scanner's
// discovery rules with test files included.
type Collector struct {
	cfg      scanner.Config
	maxFiles int
}

// NewCollector creates a collector. MaxFiles of cfg is ignored; the artifact
// cap is DefaultMaxArtifactFiles.
func NewCollector(cfg scanner.Config) *Collector {
	cfg.IncludeTests = true
	return &Collector{cfg: cfg, maxFiles: DefaultMaxArtifactFiles}
}

// Split returns the implementation and test files under root.
func (c *Collector) Split(ctx context.Context, root string) (impl, tests []string, err error) {
	files, err := scanner.DiscoverFiles(ctx, root, c.cfg)
	if err != nil {
		return nil, nil, err
	}
	impl, tests = []string{}, []string{}
	for _, f := range files {
		if scanner.IsTestFile(f) {
			tests = append(tests, f)
		} else {
			impl = append(impl, f)
		}
	}
	return impl, tests, nil
}

// TestFiles returns the test files under root.
func (c *Collector) TestFiles(ctx context.Context, root string) ([]string, error) {
	_, tests, err := c.Split(ctx, root)
	return tests, err
}

// ImplementationFiles returns the non-test source files under root.
func (c *Collector) ImplementationFiles(ctx context.Context, root string) ([]string, error) {
	impl, _, err := c.Split(ctx, root)
	return impl, err
}

// Artifact loads implementation and test files with their content. Files
// that are unreadable or larger than scanner.MaxSourceSize are skipped.
func (c *Collector) Artifact(ctx context.Context, root string) (types.Artifact, error) {
	impl, tests, err := c.Split(ctx, root)
	if err != nil {
		return types.Artifact{}, fmt.Errorf("collect artifact: %w", err)
	}

	// Each kind gets its own budget.
	implBudget, testBudget := c.maxFiles, c.maxFiles
	files := c.load(ctx, root, impl, &implBudget)
	testFiles := c.load(ctx, root, tests, &testBudget)
	return types.Artifact{Files: files, TestFiles: testFiles}, nil
}

// TestContents loads only the test files under root.
func (c *Collector) TestContents(ctx context.Context, root string) ([]types.FileContent, error) {
	tests, err := c.TestFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	budget := c.maxFiles
	return c.load(ctx, root, tests, &budget), nil
}

func (c *Collector) load(ctx context.Context, root string, paths []string, budget *int) []types.FileContent {
	out := []types.FileContent{}
	for _, rel := range paths {
		if *budget <= 0 {
			slog.DebugContext(ctx, "artifact file cap reached", "cap", c.maxFiles)
			break
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || info.Size() > scanner.MaxSourceSize {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			slog.DebugContext(ctx, "skipping unreadable file", "path", rel, "error", err)
			continue
		}
		out = append(out, types.FileContent{Path: rel, Content: string(data)})
		*budget--
	}
	return out
}
