// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pipeline orchestrates the seeding run.

Phases execute strictly in dependency order: users, then the reference
entities (authors, artists, types, genres), then comics, then chapters.
Each phase is gated on the previous phase's entity-resolution map — the
comic phase cannot start until every reference map exists, and the chapter
phase cannot start until comics are committed and resolvable.

All cross-phase state lives in an explicit [Context] threaded through the
phase functions. There are no package-level caches and no closure-captured
working sets; what a phase consumes and produces is visible in its signature.

# Failure Model

Record-level errors (validation, resolution, download) are recovered and
aggregated into the execution report. Phase-level errors abort that phase's
transaction and propagate; phases already committed stay committed. The
caller is expected to flush the partial report before exiting non-zero.
*/
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-seeder/internal/ingest/fetch"
	"github.com/taibuivan/yomira-seeder/internal/ingest/imagededup"
	"github.com/taibuivan/yomira-seeder/internal/ingest/report"
	"github.com/taibuivan/yomira-seeder/internal/ingest/resolve"
	"github.com/taibuivan/yomira-seeder/internal/ingest/source"
	"github.com/taibuivan/yomira-seeder/internal/ingest/validate"
	"github.com/taibuivan/yomira-seeder/internal/platform/apperr"
	"github.com/taibuivan/yomira-seeder/internal/platform/config"
	"github.com/taibuivan/yomira-seeder/internal/platform/postgres"
	"github.com/taibuivan/yomira-seeder/internal/storage/blob"
)

// Context carries everything a phase needs: configuration, collaborators,
// the execution report, and the state produced by earlier phases.
type Context struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *pgxpool.Pool // nil in dry-run mode
	Report   *report.Report
	Store    blob.Store
	Fetcher  *fetch.Client
	Images   *imagededup.Deduper
	Progress fetch.Progress

	DryRun bool

	// Entity-resolution maps, populated as phases commit.
	Authors *resolve.Map
	Artists *resolve.Map
	Types   *resolve.Map
	Genres  *resolve.Map
	Comics  *resolve.Map

	// comics is the deduplicated catalog working set, loaded once during
	// intake. Reference phases mine it for names; the comic phase persists it.
	comics []validate.Comic
}

// Sources lists the candidate export files per entity type. Missing files
// are skipped; present files are merged.
type Sources struct {
	Users    []string
	Authors  []string
	Artists  []string
	Types    []string
	Genres   []string
	Comics   []string
	Chapters []string
}

// DefaultSources builds the conventional file layout under dir. Each entity
// has a primary export plus a legacy-named variant, since older export sets
// used different file names.
func DefaultSources(dir string) Sources {
	pair := func(name, legacy string) []string {
		return []string{filepath.Join(dir, name), filepath.Join(dir, legacy)}
	}
	return Sources{
		Users:    pair("users.json", "users_export.json"),
		Authors:  pair("authors.json", "authors_export.json"),
		Artists:  pair("artists.json", "artists_export.json"),
		Types:    pair("types.json", "categories.json"),
		Genres:   pair("genres.json", "tags.json"),
		Comics:   pair("comics.json", "mangas.json"),
		Chapters: pair("chapters.json", "chapters_export.json"),
	}
}

// Run executes the full pipeline. The first phase-level failure aborts the
// run; the report retains everything accumulated up to that point.
func Run(ctx context.Context, pc *Context, sources Sources) error {
	if err := pc.runPhase(ctx, "users", func(ctx context.Context, phase *report.Phase) error {
		return pc.runUserPhase(ctx, phase, sources.Users)
	}); err != nil {
		return err
	}

	if err := pc.runPhase(ctx, "comic_intake", func(ctx context.Context, phase *report.Phase) error {
		return pc.runComicIntake(ctx, phase, sources.Comics)
	}); err != nil {
		return err
	}

	// Reference entities come before the comics that reference them. Each
	// phase unions its own export files with the names mined from the comic
	// working set, since many export sets only carry authors inline.
	references := []struct {
		name    string
		paths   []string
		derived func() []validate.Reference
		run     func(context.Context, *report.Phase, []string, []validate.Reference) (*resolve.Map, error)
	}{
		{"authors", sources.Authors, pc.derivedAuthors, pc.runAuthorPhase},
		{"artists", sources.Artists, pc.derivedArtists, pc.runArtistPhase},
		{"types", sources.Types, pc.derivedTypes, pc.runTypePhase},
		{"genres", sources.Genres, pc.derivedGenres, pc.runGenrePhase},
	}
	for _, ref := range references {
		if err := pc.runPhase(ctx, ref.name, func(ctx context.Context, phase *report.Phase) error {
			_, err := ref.run(ctx, phase, ref.paths, ref.derived())
			return err
		}); err != nil {
			return err
		}
	}

	if err := pc.runPhase(ctx, "comics", pc.runComicPhase); err != nil {
		return err
	}

	if err := pc.runPhase(ctx, "chapters", func(ctx context.Context, phase *report.Phase) error {
		return pc.runChapterPhase(ctx, phase, sources.Chapters)
	}); err != nil {
		return err
	}

	pc.Report.Finish()
	return nil
}

// runPhase wraps a phase function with report lifecycle and logging.
func (pc *Context) runPhase(ctx context.Context, name string, fn func(context.Context, *report.Phase) error) error {
	phase := pc.Report.StartPhase(name)
	pc.Logger.Info("phase_started", slog.String("phase", name))

	if err := fn(ctx, phase); err != nil {
		phase.End(report.StatusFailed)
		pc.Logger.Error("phase_failed",
			slog.String("phase", name),
			slog.Any("error", err),
		)
		return fmt.Errorf("pipeline: phase %s: %w", name, err)
	}

	phase.End(report.StatusSuccess)
	pc.Logger.Info("phase_completed",
		slog.String("phase", name),
		slog.Int("errors", phase.Counts.Errors),
	)
	return nil
}

// inTx runs fn inside a single transaction, giving each phase its
// all-or-nothing write boundary. Dry runs never reach this.
func (pc *Context) inTx(ctx context.Context, fn func(q postgres.Querier) error) error {
	tx, err := pc.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// loadAndValidate performs the shared intake steps for a phase: load the
// export files, record source errors, then validate and record per-record
// failures. Invalid records never block their siblings.
func loadAndValidate[T any](
	pc *Context,
	phase *report.Phase,
	entity string,
	paths []string,
	validator func(source.Record) (T, *apperr.AppError),
) []T {
	loader := source.NewLoader(pc.Logger)
	records, sourceErrs := loader.Load(entity, paths)
	for _, err := range sourceErrs {
		phase.RecordError(err)
	}

	valid, failures := validate.Batch(records, validator)
	for _, failure := range failures {
		phase.RecordError(failure.Err.With("raw", failure.Raw))
	}

	phase.Add(report.Counts{Processed: len(records)})
	return valid
}

// countRows returns the current row count of a table; used to split a
// phase's written total into inserted and updated.
func countRows(ctx context.Context, q postgres.Querier, table string) (int64, error) {
	var count int64
	err := q.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting %s rows: %w", table, err)
	}
	return count, nil
}
