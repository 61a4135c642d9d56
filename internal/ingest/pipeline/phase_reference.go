// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"context"

	"github.com/taibuivan/yomira-seeder/internal/ingest/dedup"
	"github.com/taibuivan/yomira-seeder/internal/ingest/report"
	"github.com/taibuivan/yomira-seeder/internal/ingest/resolve"
	"github.com/taibuivan/yomira-seeder/internal/ingest/upsert"
	"github.com/taibuivan/yomira-seeder/internal/ingest/validate"
	"github.com/taibuivan/yomira-seeder/internal/platform/postgres"
	"github.com/taibuivan/yomira-seeder/internal/platform/schema"
	"github.com/taibuivan/yomira-seeder/pkg/slice"
)

// The four reference-entity phases share one implementation: load the
// entity's own export files, union in the names mined from the comic
// working set, deduplicate on normalized name, upsert, and build the
// resolution map for downstream phases.

func (pc *Context) runAuthorPhase(ctx context.Context, phase *report.Phase, paths []string, derived []validate.Reference) (*resolve.Map, error) {
	m, err := pc.runReferencePhase(ctx, phase, "author", schema.Author, paths, derived)
	if err != nil {
		return nil, err
	}
	pc.Authors = m
	return m, nil
}

func (pc *Context) runArtistPhase(ctx context.Context, phase *report.Phase, paths []string, derived []validate.Reference) (*resolve.Map, error) {
	m, err := pc.runReferencePhase(ctx, phase, "artist", schema.Artist, paths, derived)
	if err != nil {
		return nil, err
	}
	pc.Artists = m
	return m, nil
}

func (pc *Context) runTypePhase(ctx context.Context, phase *report.Phase, paths []string, derived []validate.Reference) (*resolve.Map, error) {
	m, err := pc.runReferencePhase(ctx, phase, "type", schema.Type, paths, derived)
	if err != nil {
		return nil, err
	}
	pc.Types = m
	return m, nil
}

func (pc *Context) runGenrePhase(ctx context.Context, phase *report.Phase, paths []string, derived []validate.Reference) (*resolve.Map, error) {
	m, err := pc.runReferencePhase(ctx, phase, "genre", schema.Genre, paths, derived)
	if err != nil {
		return nil, err
	}
	pc.Genres = m
	return m, nil
}

// # Derived References

// derivedAuthors mines author names from the comic working set.
func (pc *Context) derivedAuthors() []validate.Reference {
	return derivedNames(pc.comics, func(c validate.Comic) []string {
		return []string{c.AuthorRef}
	})
}

// derivedArtists mines artist names from the comic working set.
func (pc *Context) derivedArtists() []validate.Reference {
	return derivedNames(pc.comics, func(c validate.Comic) []string {
		return []string{c.ArtistRef}
	})
}

// derivedTypes mines type names from the comic working set.
func (pc *Context) derivedTypes() []validate.Reference {
	return derivedNames(pc.comics, func(c validate.Comic) []string {
		return []string{c.TypeRef}
	})
}

// derivedGenres mines genre names from the comic working set.
func (pc *Context) derivedGenres() []validate.Reference {
	return derivedNames(pc.comics, func(c validate.Comic) []string {
		return c.GenreRefs
	})
}

// derivedNames collects non-empty names extracted from the comic working
// set. Duplicates against the entity's own export files are collapsed by the
// phase's exact-duplicate check, not here.
func derivedNames(comics []validate.Comic, extract func(validate.Comic) []string) []validate.Reference {
	var refs []validate.Reference
	for _, c := range comics {
		for _, name := range extract(c) {
			if name == "" {
				continue
			}
			refs = append(refs, validate.Reference{Name: name})
		}
	}
	return refs
}

// # Shared Implementation

func (pc *Context) runReferencePhase(
	ctx context.Context,
	phase *report.Phase,
	entity string,
	table schema.RefTable,
	paths []string,
	derived []validate.Reference,
) (*resolve.Map, error) {
	valid := loadAndValidate(pc, phase, entity, paths, validate.ValidateReference)

	// Derived names count as processed input too: they came from a source
	// file, just not this entity's own.
	phase.Add(report.Counts{Processed: len(derived)})
	all := append(valid, derived...)

	unique, conflicts := dedup.Exact(all, "name", dedup.KindName, func(r validate.Reference) string {
		return r.Name
	})
	pc.recordConflicts(phase, conflicts)

	rows := slice.Map(unique, func(r validate.Reference) []any {
		return []any{r.Name, r.Bio, r.ImageURL}
	})

	spec := upsert.Spec{
		Table:         table.Table,
		Columns:       []string{table.Name, table.Bio, table.ImageURL},
		KeyColumns:    []string{table.Name},
		UpdateColumns: []string{table.Bio, table.ImageURL},
		BatchSize:     pc.Config.BatchSize,
		DryRun:        pc.DryRun,
	}

	if pc.DryRun {
		result, err := upsert.Run(ctx, nil, spec, rows)
		if err != nil {
			return nil, err
		}
		phase.Add(report.Counts{Inserted: result.Written})

		m := resolve.NewMap(entity)
		for _, r := range unique {
			m.AddSynthetic(r.Name)
		}
		return m, nil
	}

	var written, inserted int64
	err := pc.inTx(ctx, func(q postgres.Querier) error {
		before, err := countRows(ctx, q, table.Table)
		if err != nil {
			return err
		}

		result, err := upsert.Run(ctx, q, spec, rows)
		if err != nil {
			return err
		}
		written = int64(result.Written)

		after, err := countRows(ctx, q, table.Table)
		if err != nil {
			return err
		}
		inserted = after - before
		return nil
	})
	if err != nil {
		return nil, err
	}

	phase.Add(report.Counts{
		Inserted: int(inserted),
		Updated:  int(written - inserted),
	})

	return resolve.Build(ctx, pc.DB, entity, table.Table, table.ID, table.Name)
}

// recordConflicts pushes duplicate-detector output into the report:
// critical (skipping) conflicts adjust the skipped count, fuzzy groups
// count as warnings.
func (pc *Context) recordConflicts(phase *report.Phase, conflicts []dedup.Conflict) {
	for _, c := range conflicts {
		context := map[string]any{
			"field":   c.Field,
			"value":   c.Value,
			"entries": c.Entries,
		}

		switch c.Severity {
		case dedup.SeverityCritical:
			phase.Add(report.Counts{Skipped: c.Skipped()})
			phase.RecordIssue("DUPLICATE_SKIPPED", c.Recommendation, context)
		case dedup.SeverityWarning:
			phase.RecordWarning("DUPLICATE_SUSPECTED", c.Recommendation, context)
		}
	}
}
