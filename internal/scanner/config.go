// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package scanner

// Config controls file discovery and asset extraction. A Config is read-only
// during a scan and may be shared between scanners.
type Config struct {
	// Extensions lists the source file extensions to analyze, with leading dot.
	Extensions []string `yaml:"extensions"`

	// ExcludePatterns are directory or file names (or glob patterns matched
	// against a single path element) that are never visited.
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// IncludeTests keeps test files in the discovered set.
	IncludeTests bool `yaml:"include_tests"`

	// MaxDepth bounds directory recursion below the project root.
	MaxDepth int `yaml:"max_depth"`

	// MaxFiles caps how many discovered files are parsed for assets.
	MaxFiles int `yaml:"max_files"`

	// BatchSize is the number of files extracted per batch.
	BatchSize int `yaml:"batch_size"`

	// Concurrency bounds parallel parses inside a batch.
	Concurrency int `yaml:"concurrency"`

	// RespectGitignore skips paths matched by the project's .gitignore.
	RespectGitignore bool `yaml:"respect_gitignore"`
}

// DefaultConfig returns the standard scan settings.
func DefaultConfig() Config {
	return Config{
		Extensions:       []string{".ts", ".js", ".tsx", ".jsx", ".py", ".java", ".go", ".rs"},
		ExcludePatterns:  []string{"node_modules", ".git", "dist", "build", "__pycache__", "vendor", "target"},
		IncludeTests:     true,
		MaxDepth:         10,
		MaxFiles:         20,
		BatchSize:        5,
		Concurrency:      5,
		RespectGitignore: true,
	}
}

// withDefaults fills zero numeric limits and empty lists from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Extensions) == 0 {
		c.Extensions = d.Extensions
	}
	if c.ExcludePatterns == nil {
		c.ExcludePatterns = d.ExcludePatterns
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = d.MaxFiles
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = c.BatchSize
	}
	return c
}
