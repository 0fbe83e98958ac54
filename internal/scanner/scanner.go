// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package scanner inspects a project before any code is generated and
// reports existing assets the task could reuse or collide with.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tddflow/internal/telemetry"
	"tddflow/pkg/types"
)

// ExtractFunc returns the assets declared in root/rel.
type ExtractFunc func(ctx context.Context, root, rel string) ([]types.AssetReference, error)

// Scanner runs codebase scans. It holds no per-scan state.
type Scanner struct {
	cfg     Config
	extract ExtractFunc
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithExtractor replaces the tree-sitter extractor.
func WithExtractor(fn ExtractFunc) Option {
	return func(s *Scanner) { s.extract = fn }
}

// New creates a scanner. Zero fields of cfg take their default values.
func New(cfg Config, opts ...Option) *Scanner {
	s := &Scanner{cfg: cfg.withDefaults(), extract: ExtractFile}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Scan discovers project files, extracts their assets and classifies them
// against the task. It never fails: discovery errors and panics produce a
// degraded result, extraction errors drop the affected batch.
func (s *Scanner) Scan(ctx context.Context, task string, tctx types.TaskContext) (result *types.ScanResult) {
	scanID := "scan_" + uuid.NewString()
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerScanner, "scanner.scan", telemetry.AttrScanID.String(scanID))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "codebase scan panicked", "scan_id", scanID, "panic", r)
			result = degraded(scanID, tctx.ProjectPath)
		}
		telemetry.EndSpan(span, nil,
			telemetry.AttrScanFiles.Int(result.TotalFiles),
			telemetry.AttrScanAssets.Int(len(result.RelevantAssets)),
			telemetry.DurationAttr(time.Since(start)),
		)
	}()

	files, err := DiscoverFiles(ctx, tctx.ProjectPath, s.cfg)
	if err != nil {
		slog.WarnContext(ctx, "codebase scan failed", "scan_id", scanID, "project", tctx.ProjectPath, "error", err)
		return degraded(scanID, tctx.ProjectPath)
	}
	slog.DebugContext(ctx, "discovered source files", "scan_id", scanID, "count", len(files))

	keywords := ExtractKeywords(task)
	assets := s.extractAll(ctx, tctx.ProjectPath, files)

	relevant := FilterRelevant(assets, keywords, task)
	reuse := ReuseOpportunities(relevant, task)
	conflicts := ConflictRisks(relevant, task)

	result = &types.ScanResult{
		ScanID:             scanID,
		Timestamp:          time.Now(),
		ProjectPath:        tctx.ProjectPath,
		TotalFiles:         len(files),
		RelevantAssets:     relevant,
		Recommendations:    Recommendations(relevant, reuse, conflicts),
		ReuseOpportunities: reuse,
		ConflictRisks:      conflicts,
	}
	logResult(ctx, result, len(keywords), len(assets))
	return result
}

// extractAll parses the first MaxFiles files batch by batch. Files inside a
// batch are parsed concurrently; any failure discards that batch only.
func (s *Scanner) extractAll(ctx context.Context, root string, files []string) []types.AssetReference {
	if len(files) > s.cfg.MaxFiles {
		files = files[:s.cfg.MaxFiles]
	}

	var assets []types.AssetReference
	for start := 0; start < len(files); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(files))
		batch, err := s.extractBatch(ctx, root, files[start:end])
		if err != nil {
			slog.WarnContext(ctx, "asset extraction failed for batch", "files", files[start:end], "error", err)
			continue
		}
		assets = append(assets, batch...)
	}
	return assets
}

func (s *Scanner) extractBatch(ctx context.Context, root string, batch []string) (assets []types.AssetReference, err error) {
	defer func() {
		if r := recover(); r != nil {
			assets, err = nil, fmt.Errorf("extractor panic: %v", r)
		}
	}()

	slots := make([][]types.AssetReference, len(batch))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, rel := range batch {
		if !Supported(rel) {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("extract %s: panic: %v", rel, r)
				}
			}()
			found, err := s.extract(gCtx, root, rel)
			if err != nil {
				return err
			}
			slots[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, found := range slots {
		assets = append(assets, found...)
	}
	return assets, nil
}

func degraded(scanID, projectPath string) *types.ScanResult {
	return &types.ScanResult{
		ScanID:             scanID,
		Timestamp:          time.Now(),
		ProjectPath:        projectPath,
		RelevantAssets:     []types.AssetReference{},
		Recommendations:    []string{RecommendationDegraded, RecommendationMandatory},
		ReuseOpportunities: []types.AssetReference{},
		ConflictRisks:      []types.AssetReference{},
	}
}

func logResult(ctx context.Context, r *types.ScanResult, keywords, assets int) {
	slog.InfoContext(ctx, "codebase scan complete",
		"scan_id", r.ScanID,
		"files", r.TotalFiles,
		"keywords", keywords,
		"assets", assets,
		"relevant", len(r.RelevantAssets),
		"reuse", len(r.ReuseOpportunities),
		"conflicts", len(r.ConflictRisks),
	)
	for _, rec := range r.Recommendations {
		slog.InfoContext(ctx, "scan recommendation", "scan_id", r.ScanID, "recommendation", rec)
	}
	for _, a := range r.ConflictRisks {
		slog.WarnContext(ctx, "conflict risk",
			"scan_id", r.ScanID,
			"type", a.Type,
			"name", a.Name,
			"location", fmt.Sprintf("%s:%d", a.FilePath, a.LineNumber),
		)
	}
}

// IsDegraded reports whether r is the fallback result of a failed scan.
func IsDegraded(r *types.ScanResult) bool {
	return r != nil && slices.Contains(r.Recommendations, RecommendationDegraded)
}
