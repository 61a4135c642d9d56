// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"context"
	"fmt"

	"github.com/taibuivan/yomira-seeder/internal/ingest/dedup"
	"github.com/taibuivan/yomira-seeder/internal/ingest/fetch"
	"github.com/taibuivan/yomira-seeder/internal/ingest/report"
	"github.com/taibuivan/yomira-seeder/internal/ingest/resolve"
	"github.com/taibuivan/yomira-seeder/internal/ingest/upsert"
	"github.com/taibuivan/yomira-seeder/internal/ingest/validate"
	"github.com/taibuivan/yomira-seeder/internal/platform/constants"
	"github.com/taibuivan/yomira-seeder/internal/platform/postgres"
	"github.com/taibuivan/yomira-seeder/internal/platform/schema"
	"github.com/taibuivan/yomira-seeder/pkg/slice"
)

// runComicIntake loads and deduplicates the catalog working set. It runs
// before the reference phases, which mine it for author/artist/type/genre
// names; the comic phase later persists it.
func (pc *Context) runComicIntake(ctx context.Context, phase *report.Phase, paths []string) error {
	valid := loadAndValidate(pc, phase, "comic", paths, validate.ValidateComic)

	// Exact slug collisions are enforced: first occurrence wins.
	unique, conflicts := dedup.Exact(valid, "slug", dedup.KindSlug, func(c validate.Comic) string {
		return c.Slug
	})
	pc.recordConflicts(phase, conflicts)

	// Title similarity is advisory only — sequels and translated titles
	// legitimately score high. Nothing is removed here.
	fuzzy := dedup.Fuzzy(unique, "title", pc.Config.FuzzyThreshold, func(c validate.Comic) string {
		return c.Title
	})
	pc.recordConflicts(phase, fuzzy)

	pc.comics = unique
	return nil
}

// comicRow is a comic with its foreign keys resolved and its assets stored.
type comicRow struct {
	comic    validate.Comic
	authorID int64
	artistID *int64
	typeID   int64
	coverKey string
	pageKeys []string
}

// runComicPhase persists the comic working set: downloads covers and preview
// pages, resolves reference-entity foreign keys, upserts the rows, and
// synchronizes the genre join table. Ends by building the comic resolution
// map that gates the chapter phase.
func (pc *Context) runComicPhase(ctx context.Context, phase *report.Phase) error {
	rows := pc.resolveComicRows(ctx, phase)

	if pc.DryRun {
		phase.Add(report.Counts{Inserted: len(rows)})
		pc.Comics = resolve.NewMap("comic")
		for _, r := range rows {
			pc.Comics.AddSynthetic(r.comic.Slug, r.comic.Title)
		}
		return nil
	}

	spec := upsert.Spec{
		Table: schema.Comic.Table,
		Columns: []string{
			schema.Comic.Title, schema.Comic.Slug, schema.Comic.Description,
			schema.Comic.CoverImageURL, schema.Comic.Status, schema.Comic.PublishedAt,
			schema.Comic.AuthorID, schema.Comic.ArtistID, schema.Comic.TypeID,
			schema.Comic.Rating, schema.Comic.Views,
		},
		KeyColumns: []string{schema.Comic.Slug},
		UpdateColumns: []string{
			schema.Comic.Title, schema.Comic.Description, schema.Comic.CoverImageURL,
			schema.Comic.Status, schema.Comic.PublishedAt, schema.Comic.AuthorID,
			schema.Comic.ArtistID, schema.Comic.TypeID, schema.Comic.Rating,
			schema.Comic.Views,
		},
		BatchSize: pc.Config.BatchSize,
	}

	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{
			r.comic.Title, r.comic.Slug, r.comic.Description,
			r.coverKey, string(r.comic.Status), r.comic.PublishedAt,
			r.authorID, r.artistID, r.typeID,
			r.comic.Rating, r.comic.Views,
		}
	}

	var written, inserted int64
	err := pc.inTx(ctx, func(q postgres.Querier) error {
		before, err := countRows(ctx, q, schema.Comic.Table)
		if err != nil {
			return err
		}

		result, err := upsert.Run(ctx, q, spec, values)
		if err != nil {
			return err
		}
		written = int64(result.Written)

		after, err := countRows(ctx, q, schema.Comic.Table)
		if err != nil {
			return err
		}
		inserted = after - before

		// Joins and page rows need the surrogate IDs the upsert just
		// assigned; read them back inside the same transaction.
		comicIDs, err := comicIDsBySlug(ctx, q, rows)
		if err != nil {
			return err
		}

		if err := pc.syncGenreJoins(ctx, q, phase, rows, comicIDs); err != nil {
			return err
		}
		return pc.replacePages(ctx, q, schema.ComicPage, ownerPages(rows, comicIDs))
	})
	if err != nil {
		return err
	}

	phase.Add(report.Counts{
		Inserted: int(inserted),
		Updated:  int(written - inserted),
	})

	comics, err := resolve.Build(ctx, pc.DB, "comic",
		schema.Comic.Table, schema.Comic.ID, schema.Comic.Slug, schema.Comic.Title)
	if err != nil {
		return err
	}
	pc.Comics = comics
	return nil
}

// resolveComicRows downloads assets and resolves foreign keys for the comic
// working set. A comic whose author or type cannot be resolved is skipped
// and recorded; a failed cover download degrades to the placeholder.
func (pc *Context) resolveComicRows(ctx context.Context, phase *report.Phase) []comicRow {
	// Batch every asset of the phase into one bounded download pass.
	var requests []fetch.Request
	coverIndex := make(map[int]int)   // comic index -> request index
	pageIndex := make(map[[2]int]int) // [comic index, page ord-1] -> request index

	for i, c := range pc.comics {
		if pc.DryRun {
			break
		}
		if c.CoverURL != "" {
			coverIndex[i] = len(requests)
			requests = append(requests, fetch.Request{
				URL: c.CoverURL,
				Key: imageKey("covers/"+c.Slug, c.CoverURL),
			})
		}
		for p, pageURL := range c.PageURLs {
			pageIndex[[2]int{i, p}] = len(requests)
			requests = append(requests, fetch.Request{
				URL: pageURL,
				Key: pageKey("pages/"+c.Slug, p+1, pageURL),
			})
		}
	}
	results := pc.fetchAndDedup(ctx, phase, requests)

	rows := make([]comicRow, 0, len(pc.comics))
	for i, c := range pc.comics {
		authorID, err := pc.Authors.ResolveOrError(c.AuthorRef)
		if err != nil {
			phase.RecordError(err.With("comic", c.Slug))
			continue
		}
		typeID, err := pc.Types.ResolveOrError(c.TypeRef)
		if err != nil {
			phase.RecordError(err.With("comic", c.Slug))
			continue
		}

		// Artist is nullable: an unresolvable artist is reported but does
		// not lose the comic.
		var artistID *int64
		if c.ArtistRef != "" {
			if id, err := pc.Artists.ResolveOrError(c.ArtistRef); err != nil {
				phase.RecordWarning("ARTIST_UNRESOLVED", err.Message, err.Context)
			} else {
				artistID = &id
			}
		}

		row := comicRow{
			comic:    c,
			authorID: authorID,
			artistID: artistID,
			typeID:   typeID,
			coverKey: constants.PlaceholderImagePath,
		}
		if ri, ok := coverIndex[i]; ok {
			row.coverKey = results[ri].StoredKey
		}
		for p := range c.PageURLs {
			if ri, ok := pageIndex[[2]int{i, p}]; ok {
				row.pageKeys = append(row.pageKeys, results[ri].StoredKey)
			}
		}

		rows = append(rows, row)
	}

	return rows
}

// comicIDsBySlug reads back the surrogate IDs for the phase's slugs.
func comicIDsBySlug(ctx context.Context, q postgres.Querier, rows []comicRow) (map[string]int64, error) {
	slugs := slice.Map(rows, func(r comicRow) string { return r.comic.Slug })

	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = ANY($1)`,
		schema.Comic.ID, schema.Comic.Slug, schema.Comic.Table, schema.Comic.Slug)

	dbRows, err := q.Query(ctx, query, slugs)
	if err != nil {
		return nil, fmt.Errorf("reading back comic ids: %w", err)
	}
	defer dbRows.Close()

	ids := make(map[string]int64, len(rows))
	for dbRows.Next() {
		var id int64
		var slugValue string
		if err := dbRows.Scan(&id, &slugValue); err != nil {
			return nil, fmt.Errorf("scanning comic id: %w", err)
		}
		ids[slugValue] = id
	}
	return ids, dbRows.Err()
}

// syncGenreJoins replaces each comic's genre associations wholesale: the
// join rows have no independent lifecycle, so delete-and-reinsert inside the
// phase transaction keeps them exactly in sync with the export.
func (pc *Context) syncGenreJoins(ctx context.Context, q postgres.Querier, phase *report.Phase, rows []comicRow, comicIDs map[string]int64) error {
	var involved []int64
	var pairs [][]any

	for _, r := range rows {
		comicID, ok := comicIDs[r.comic.Slug]
		if !ok {
			continue
		}
		involved = append(involved, comicID)

		for _, genreRef := range r.comic.GenreRefs {
			genreID, err := pc.Genres.ResolveOrError(genreRef)
			if err != nil {
				phase.RecordError(err.With("comic", r.comic.Slug))
				continue
			}
			pairs = append(pairs, []any{comicID, genreID})
		}
	}

	if len(involved) == 0 {
		return nil
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = ANY($1)`,
		schema.ComicGenre.Table, schema.ComicGenre.ComicID)
	if _, err := q.Exec(ctx, deleteQuery, involved); err != nil {
		return fmt.Errorf("clearing genre joins: %w", err)
	}

	_, err := upsert.Run(ctx, q, upsert.Spec{
		Table:      schema.ComicGenre.Table,
		Columns:    []string{schema.ComicGenre.ComicID, schema.ComicGenre.GenreID},
		KeyColumns: []string{schema.ComicGenre.ComicID, schema.ComicGenre.GenreID},
		// No update columns: a re-listed pair is simply kept.
		BatchSize: pc.Config.BatchSize,
	}, pairs)
	return err
}

// pageSet is the replacement page list for one owner row.
type pageSet struct {
	ownerID int64
	keys    []string
}

// ownerPages pairs each persisted comic with its stored page keys.
func ownerPages(rows []comicRow, comicIDs map[string]int64) []pageSet {
	var sets []pageSet
	for _, r := range rows {
		ownerID, ok := comicIDs[r.comic.Slug]
		if !ok || len(r.pageKeys) == 0 {
			continue
		}
		sets = append(sets, pageSet{ownerID: ownerID, keys: r.pageKeys})
	}
	return sets
}

// replacePages applies the immutable-page contract: delete every page row of
// the involved owners, then reinsert with contiguous order starting at 1.
func (pc *Context) replacePages(ctx context.Context, q postgres.Querier, table schema.PageTable, sets []pageSet) error {
	if len(sets) == 0 {
		return nil
	}

	owners := make([]int64, len(sets))
	var rows [][]any
	for i, set := range sets {
		owners[i] = set.ownerID
		for ord, key := range set.keys {
			rows = append(rows, []any{set.ownerID, key, ord + 1})
		}
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = ANY($1)`, table.Table, table.OwnerID)
	if _, err := q.Exec(ctx, deleteQuery, owners); err != nil {
		return fmt.Errorf("clearing %s rows: %w", table.Table, err)
	}

	_, err := upsert.Run(ctx, q, upsert.Spec{
		Table:      table.Table,
		Columns:    []string{table.OwnerID, table.ImageURL, table.Ord},
		KeyColumns: []string{table.OwnerID, table.Ord},
		// Page rows are immutable; after the delete above, conflicts are
		// impossible, and DO NOTHING keeps it that way.
		BatchSize: pc.Config.BatchSize,
	}, rows)
	return err
}
