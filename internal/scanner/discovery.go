// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DiscoverFiles walks root and returns the source files matching cfg, as
// paths relative to root in lexical walk order.
func DiscoverFiles(ctx context.Context, root string, cfg Config) ([]string, error) {
	cfg = cfg.withDefaults()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat project path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", root)
	}

	var gi *ignore.GitIgnore
	if cfg.RespectGitignore {
		gi = loadGitignore(root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if depth(rel) > cfg.MaxDepth || excluded(d.Name(), cfg.ExcludePatterns) || ignored(gi, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || excluded(d.Name(), cfg.ExcludePatterns) || ignored(gi, rel) {
			return nil
		}
		if !slices.Contains(cfg.Extensions, strings.ToLower(filepath.Ext(rel))) {
			return nil
		}
		if !cfg.IncludeTests && IsTestFile(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// IsTestFile reports whether a relative path follows a common test naming
// convention of the supported languages.
func IsTestFile(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	switch {
	case strings.HasSuffix(name, "_test"),
		strings.HasSuffix(name, ".test"),
		strings.HasSuffix(name, ".spec"),
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"),
		strings.HasSuffix(base, "Test.java"),
		strings.HasSuffix(base, "Tests.java"):
		return true
	}

	for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if dir == "__tests__" || dir == "tests" || dir == "test" {
			return true
		}
	}
	return false
}

func depth(rel string) int {
	return strings.Count(rel, "/") + 1
}

func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func ignored(gi *ignore.GitIgnore, rel string) bool {
	return gi != nil && gi.MatchesPath(rel)
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
