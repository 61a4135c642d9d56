// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"context"
	"fmt"

	"github.com/taibuivan/yomira-seeder/internal/ingest/dedup"
	"github.com/taibuivan/yomira-seeder/internal/ingest/fetch"
	"github.com/taibuivan/yomira-seeder/internal/ingest/natkey"
	"github.com/taibuivan/yomira-seeder/internal/ingest/report"
	"github.com/taibuivan/yomira-seeder/internal/ingest/upsert"
	"github.com/taibuivan/yomira-seeder/internal/ingest/validate"
	"github.com/taibuivan/yomira-seeder/internal/platform/postgres"
	"github.com/taibuivan/yomira-seeder/internal/platform/schema"
)

// chapterRow is a chapter with its parent comic resolved and pages stored.
type chapterRow struct {
	chapter  validate.Chapter
	comicID  int64
	pageKeys []string
}

// chapterKey renders the chapter natural key (comicid, chapternumber) as a
// map key for read-back lookups.
func chapterKey(comicID int64, number float64) string {
	return fmt.Sprintf("%d#%g", comicID, number)
}

// runChapterPhase seeds chapters and their page images. It is gated on the
// comic resolution map: a chapter whose comic reference matches no variant
// is skipped and recorded, never fatal.
func (pc *Context) runChapterPhase(ctx context.Context, phase *report.Phase, paths []string) error {
	valid := loadAndValidate(pc, phase, "chapter", paths, validate.ValidateChapter)

	resolved := pc.resolveChapterRows(ctx, phase, valid)

	// The natural key is (comic, chapter number). Deduplication happens after
	// resolution so the same chapter arriving via "Hero Saga" and "hero-saga"
	// collapses to one occurrence regardless of spelling.
	rows, conflicts := dedup.Exact(resolved, "chapter_key", dedup.KindName, func(r chapterRow) string {
		return chapterKey(r.comicID, r.chapter.Number)
	})
	pc.recordConflicts(phase, conflicts)

	if pc.DryRun {
		phase.Add(report.Counts{Inserted: len(rows)})
		return nil
	}

	spec := upsert.Spec{
		Table: schema.Chapter.Table,
		Columns: []string{
			schema.Chapter.ComicID, schema.Chapter.ChapterNumber,
			schema.Chapter.Slug, schema.Chapter.Title,
			schema.Chapter.ReleasedAt, schema.Chapter.Views,
		},
		KeyColumns: []string{schema.Chapter.ComicID, schema.Chapter.ChapterNumber},
		UpdateColumns: []string{
			schema.Chapter.Slug, schema.Chapter.Title,
			schema.Chapter.ReleasedAt, schema.Chapter.Views,
		},
		BatchSize: pc.Config.BatchSize,
	}

	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{
			r.comicID, r.chapter.Number, r.chapter.Slug,
			r.chapter.Title, r.chapter.ReleasedAt, r.chapter.Views,
		}
	}

	var written, inserted int64
	err := pc.inTx(ctx, func(q postgres.Querier) error {
		before, err := countRows(ctx, q, schema.Chapter.Table)
		if err != nil {
			return err
		}

		result, err := upsert.Run(ctx, q, spec, values)
		if err != nil {
			return err
		}
		written = int64(result.Written)

		after, err := countRows(ctx, q, schema.Chapter.Table)
		if err != nil {
			return err
		}
		inserted = after - before

		chapterIDs, err := chapterIDsByKey(ctx, q, rows)
		if err != nil {
			return err
		}

		var sets []pageSet
		for _, r := range rows {
			id, ok := chapterIDs[chapterKey(r.comicID, r.chapter.Number)]
			if !ok || len(r.pageKeys) == 0 {
				continue
			}
			sets = append(sets, pageSet{ownerID: id, keys: r.pageKeys})
		}
		return pc.replacePages(ctx, q, schema.ChapterPage, sets)
	})
	if err != nil {
		return err
	}

	phase.Add(report.Counts{
		Inserted: int(inserted),
		Updated:  int(written - inserted),
	})
	return nil
}

// resolveChapterRows resolves each chapter's comic reference and downloads
// its page images. Unresolvable chapters are skipped and recorded with the
// attempted lookup keys.
func (pc *Context) resolveChapterRows(ctx context.Context, phase *report.Phase, chapters []validate.Chapter) []chapterRow {
	type pending struct {
		row      chapterRow
		firstReq int // index into requests, -1 when no pages
	}

	var requests []fetch.Request
	var resolved []pending

	for _, c := range chapters {
		comicID, err := pc.Comics.ResolveOrError(c.ComicRef)
		if err != nil {
			phase.RecordError(err.With("chapter_number", c.Number))
			continue
		}

		p := pending{row: chapterRow{chapter: c, comicID: comicID}, firstReq: -1}
		if !pc.DryRun && len(c.PageURLs) > 0 {
			p.firstReq = len(requests)
			prefix := fmt.Sprintf("pages/%s/%s", natkey.Slug(c.ComicRef), c.Slug)
			for i, pageURL := range c.PageURLs {
				requests = append(requests, fetch.Request{
					URL: pageURL,
					Key: pageKey(prefix, i+1, pageURL),
				})
			}
		}
		resolved = append(resolved, p)
	}

	results := pc.fetchAndDedup(ctx, phase, requests)

	rows := make([]chapterRow, 0, len(resolved))
	for _, p := range resolved {
		if p.firstReq >= 0 {
			for i := range p.row.chapter.PageURLs {
				p.row.pageKeys = append(p.row.pageKeys, results[p.firstReq+i].StoredKey)
			}
		}
		rows = append(rows, p.row)
	}
	return rows
}

// chapterIDsByKey reads back surrogate IDs for the involved comics' chapters.
func chapterIDsByKey(ctx context.Context, q postgres.Querier, rows []chapterRow) (map[string]int64, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{})
	var comicIDs []int64
	for _, r := range rows {
		if _, ok := seen[r.comicID]; !ok {
			seen[r.comicID] = struct{}{}
			comicIDs = append(comicIDs, r.comicID)
		}
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = ANY($1)`,
		schema.Chapter.ID, schema.Chapter.ComicID, schema.Chapter.ChapterNumber,
		schema.Chapter.Table, schema.Chapter.ComicID)

	dbRows, err := q.Query(ctx, query, comicIDs)
	if err != nil {
		return nil, fmt.Errorf("reading back chapter ids: %w", err)
	}
	defer dbRows.Close()

	ids := make(map[string]int64, len(rows))
	for dbRows.Next() {
		var id, comicID int64
		var number float64
		if err := dbRows.Scan(&id, &comicID, &number); err != nil {
			return nil, fmt.Errorf("scanning chapter id: %w", err)
		}
		ids[chapterKey(comicID, number)] = id
	}
	return ids, dbRows.Err()
}
