// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command seeder is the entry point for the Yomira catalog seeding pipeline.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Parse flags and load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) — skipped in dry-run mode.
//  4. Connect to Redis when an image-hash registry URL is configured.
//  5. Run database migrations when MIGRATE_ON_START is set (idempotent).
//  6. Wire the pipeline: blob store, download client, image deduper.
//  7. Execute the phases and flush the execution report.
//
// The report is written even when the run fails partway: everything
// accumulated up to the failing phase is flushed before exiting non-zero.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-seeder/internal/ingest/fetch"
	"github.com/taibuivan/yomira-seeder/internal/ingest/imagededup"
	"github.com/taibuivan/yomira-seeder/internal/ingest/pipeline"
	"github.com/taibuivan/yomira-seeder/internal/ingest/report"
	"github.com/taibuivan/yomira-seeder/internal/platform/config"
	"github.com/taibuivan/yomira-seeder/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-seeder/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-seeder/internal/platform/redis"
	"github.com/taibuivan/yomira-seeder/internal/storage/blob"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "yomira-seeder"))
	slog.SetDefault(log)

	// ── 2. Flags & Configuration ──────────────────────────────────────────
	dryRun := flag.Bool("dry-run", false, "validate and deduplicate without writing to the database")
	inputDir := flag.String("input", "", "directory containing the export files (overrides INPUT_DIR)")
	reportDir := flag.String("out", "", "directory for report artifacts (overrides REPORT_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if *inputDir != "" {
		cfg.InputDir = *inputDir
	}
	if *reportDir != "" {
		cfg.ReportDir = *reportDir
	}
	must(log, cfg.Validate(*dryRun), "validate configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "yomira-seeder"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("input_dir", cfg.InputDir),
		slog.Bool("dry_run", *dryRun),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	var pool *pgxpool.Pool
	if !*dryRun {
		pool, err = pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing postgres pool")
			pool.Close()
		}()
	}

	// ── 4. Redis (image-hash registry) ────────────────────────────────────
	var registry imagededup.Registry = imagededup.NewMemoryRegistry()
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
		registry = imagededup.NewRedisRegistry(rdb)
	}

	// ── 5. Migrations ─────────────────────────────────────────────────────
	if !*dryRun && cfg.MigrateOnStart {
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")
	}

	// ── 6. Pipeline Wiring ────────────────────────────────────────────────
	store, err := blob.NewLocalStore(cfg.StorageDir)
	must(log, err, "initialize blob store")

	fetcher := fetch.NewClient(fetch.Options{
		Concurrency: cfg.DownloadConcurrency,
		MaxBytes:    cfg.MaxImageBytes,
		RPS:         cfg.DownloadRPS,
	}, log)

	images := imagededup.New(registry, log)
	run := report.New(*dryRun)

	pc := &pipeline.Context{
		Config:   cfg,
		Logger:   log,
		DB:       pool,
		Report:   run,
		Store:    store,
		Fetcher:  fetcher,
		Images:   images,
		Progress: newBarProgress(os.Stderr),
		DryRun:   *dryRun,
	}

	// ── 7. Execution ──────────────────────────────────────────────────────
	log.Info("seeding_started", slog.String("run_id", run.RunID))

	runErr := pipeline.Run(context.Background(), pc, pipeline.DefaultSources(cfg.InputDir))
	if runErr != nil {
		log.Error("seeding_failed", slog.Any("error", runErr))
	}

	stats := images.Stats()
	log.Info("image_dedup_stats",
		slog.Int("hashed", stats.Hashed),
		slog.Int("unique", stats.Unique),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int64("bytes_saved", stats.BytesSaved),
	)

	// ── 8. Report Artifacts ───────────────────────────────────────────────
	// Flushed unconditionally: a failed run's partial report is exactly what
	// the operator needs to diagnose it.
	flushReport(log, run, cfg.ReportDir)

	if runErr != nil {
		os.Exit(1)
	}
	log.Info("seeding_completed", slog.String("run_id", run.RunID))
}

// flushReport writes the JSON and text artifacts and prints the text summary
// to stdout. Artifact failures are logged, never fatal: the run's exit code
// must reflect the pipeline outcome, not the report writer.
func flushReport(log *slog.Logger, run *report.Report, dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("report directory error", slog.Any("error", err))
		return
	}

	jsonPath := filepath.Join(dir, "seed-report-"+run.RunID+".json")
	if err := run.WriteJSON(jsonPath); err != nil {
		log.Error("report write error", slog.Any("error", err))
	} else {
		log.Info("report_written", slog.String("path", jsonPath))
	}

	textPath := filepath.Join(dir, "seed-report-"+run.RunID+".txt")
	if err := run.WriteText(textPath); err != nil {
		log.Error("report write error", slog.Any("error", err))
	}

	os.Stdout.WriteString(run.Render())
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
