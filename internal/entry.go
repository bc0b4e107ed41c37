// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/othala/internal/export"
	"github.com/starford/othala/internal/filter"
	"github.com/starford/othala/internal/inbox"
	"github.com/starford/othala/internal/ledger"
	"github.com/starford/othala/internal/pipeline"
)

// Run executes one full migration run over the configured snapshot files.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}

	files, err := discoverSnapshots(&app.config.Snapshot)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no snapshot files at %s", app.config.Snapshot.Path)
	}

	return runOnce(ctx, app.config, app.logger, files)
}

// Watch watches the snapshot inbox and executes a run for each new snapshot
// file that lands there. Migration exports arrive as periodic drops; every
// drop is processed with the same all-or-nothing ledger commit as a manual
// run.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	info, err := os.Stat(cfg.Snapshot.Path)
	if err != nil {
		return fmt.Errorf("stat snapshot path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch mode needs a snapshot directory, got file %s", cfg.Snapshot.Path)
	}

	return inbox.Watch(ctx, cfg.Snapshot.Path, cfg.Snapshot.Pattern, app.logger, func(ctx context.Context, path string) {
		if err := runOnce(ctx, cfg, app.logger, []string{path}); err != nil {
			app.logger.Error("run failed", slog.String("file", path), slog.String("error", err.Error()))
		}
	})
}

func newApplication(opts ...Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}

	app.logger.Info("configuration loaded",
		slog.String("snapshot_path", app.config.Snapshot.Path),
		slog.String("ledger_path", app.config.Ledger.Path),
		slog.String("export_dir", app.config.Export.Dir),
		slog.String("log_level", app.config.App.LogLevel.String()))
	return app, nil
}

// discoverSnapshots resolves the configured path to a sorted file list.
func discoverSnapshots(cfg *SnapshotConfig) ([]string, error) {
	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("stat snapshot path: %w", err)
	}
	if !info.IsDir() {
		return []string{cfg.Path}, nil
	}
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = "*.ndjson"
	}
	files, err := filepath.Glob(filepath.Join(cfg.Path, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob snapshots: %w", err)
	}
	return files, nil
}

// runOnce is the all-or-nothing unit of work: every file must succeed before
// a single ledger row is committed. filepath.Glob returns sorted paths, so
// the merged canonical order is deterministic.
func runOnce(ctx context.Context, cfg *Config, logger *slog.Logger, files []string) error {
	overrides, err := filter.LoadOverrides(cfg.Filter.OverridesPath)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}

	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := db.Load()
	if err != nil {
		return err
	}
	comparator := ledger.NewComparator(snap)

	pass := &pipeline.Pass{
		Logger:   logger,
		Detector: filter.NewWireDetector(overrides),
		Compare:  comparator,
		Now:      time.Now(),
	}

	// Files share no mutable pipeline state, so they fan out; results keep
	// their input slot for a deterministic merge.
	results := make([]*pipeline.FileResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Snapshot.Workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			res, err := pass.ProcessFile(gCtx, file)
			if err != nil {
				return err
			}
			logger.Info("snapshot scanned",
				slog.String("file", file),
				slog.Int("decoded", res.Decoded))
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Abort before any ledger write: a partial run must not flush a
		// partial ledger.
		return err
	}

	report := &pipeline.Report{}
	for _, res := range results {
		report.Merge(res)
	}

	// Canonical selection spans the whole run: a route split across files
	// must still resolve to one latest record.
	run, err := pass.Finalize(results)
	if err != nil {
		return err
	}
	report.MergeRun(run)

	importSet := cfg.Export.ImportSet
	if importSet == "" {
		importSet = "import-" + pass.Now.UTC().Format("2006-01-02")
	}

	writer, err := export.NewWriter(cfg.Export.Dir, cfg.Export.PlaceholderAuthor, importSet)
	if err != nil {
		return err
	}
	for _, batch := range export.Chunk(run.Canonical, cfg.Export.BatchSize) {
		name, err := writer.WriteBatch(batch)
		if err != nil {
			return err
		}
		logger.Info("batch written",
			slog.String("file", name),
			slog.Int("records", len(batch.Records)))
	}
	if len(report.Redirects) > 0 {
		if err := export.WriteJSON(filepath.Join(cfg.Export.Dir, "redirects.json"), report.Redirects); err != nil {
			return err
		}
	}
	if len(report.Topics) > 0 {
		if err := export.WriteJSON(filepath.Join(cfg.Export.Dir, "topics.json"), report.Topics); err != nil {
			return err
		}
	}

	// Candidate upstream deletions are reported, never auto-removed.
	for _, e := range comparator.Unseen() {
		logger.Warn("ledger entry not seen this run",
			slog.String("uuid", e.UUID),
			slog.String("url", e.URL))
	}

	if err := db.CommitRun(run.Entries); err != nil {
		return err
	}

	report.LogSummary(logger)
	return nil
}
