// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package resolve builds the natural-key → surrogate-ID maps that translate
loose foreign-key references between independently generated export files.

A chapters export may reference its comic by title ("Hero Saga"), by slug
("hero-saga"), or by a suffixed slug from a different exporter
("hero-saga-x1f9k2"). After each entity phase commits, the resolver queries
the just-written rows and registers every key variant, so later phases can
resolve whichever form their export happens to use.

A reference that matches no variant is a per-record error, never a pipeline
failure: the dependent record is skipped and the attempted keys are logged.
*/
package resolve

import (
	"context"
	"fmt"

	"github.com/taibuivan/yomira-seeder/internal/ingest/natkey"
	"github.com/taibuivan/yomira-seeder/internal/platform/apperr"
	"github.com/taibuivan/yomira-seeder/internal/platform/postgres"
	"github.com/taibuivan/yomira-seeder/pkg/slug"
)

// Map is a lookup table from every known key variant to a surrogate ID.
//
// # Concurrency
//
// Map is populated once after a phase commits and read-only afterwards; it
// is not safe for concurrent mutation.
type Map struct {
	entity string
	ids    map[string]int64

	// nextSynthetic hands out negative IDs during dry runs, so dependent
	// phases still exercise resolution without a database.
	nextSynthetic int64
}

// NewMap creates an empty resolver map for the named entity type.
func NewMap(entity string) *Map {
	return &Map{
		entity:        entity,
		ids:           make(map[string]int64),
		nextSynthetic: -1,
	}
}

// Entity returns the entity type this map resolves.
func (m *Map) Entity() string { return m.entity }

// Len returns the number of registered key variants.
func (m *Map) Len() int { return len(m.ids) }

// Add registers an entity under every variant of its natural keys:
//
//   - each raw key exactly as supplied,
//   - the normalized slug form with any trailing opaque-ID suffix stripped,
//   - the slugified form of name-like keys,
//   - the normalized (lowercased, whitespace-collapsed) name form.
//
// The first registration of a variant wins; a later entity whose variants
// collide with an existing one does not overwrite it.
func (m *Map) Add(id int64, rawKeys ...string) {
	for _, raw := range rawKeys {
		if raw == "" {
			continue
		}
		m.put(raw, id)

		normalizedSlug := natkey.Slug(raw)
		m.put(normalizedSlug, id)
		m.put(natkey.StripIDSuffix(normalizedSlug), id)

		m.put(slug.From(raw), id)
		m.put(natkey.Name(raw), id)
	}
}

// AddSynthetic registers an entity under a fresh negative surrogate ID.
// Used by dry runs, where no database assigns real IDs.
func (m *Map) AddSynthetic(rawKeys ...string) int64 {
	id := m.nextSynthetic
	m.nextSynthetic--
	m.Add(id, rawKeys...)
	return id
}

// put registers a single variant if it is non-empty and not already taken.
func (m *Map) put(key string, id int64) {
	if key == "" {
		return
	}
	if _, exists := m.ids[key]; !exists {
		m.ids[key] = id
	}
}

// Resolve looks up a raw reference, trying each variant in priority order:
// exact, normalized slug, suffix-stripped slug, slugified, normalized name.
func (m *Map) Resolve(reference string) (int64, bool) {
	for _, key := range m.variants(reference) {
		if id, ok := m.ids[key]; ok {
			return id, true
		}
	}
	return 0, false
}

// ResolveOrError looks up a raw reference and, on failure, returns a
// RESOLUTION_ERROR carrying every attempted key for the execution report.
func (m *Map) ResolveOrError(reference string) (int64, *apperr.AppError) {
	if id, ok := m.Resolve(reference); ok {
		return id, nil
	}
	return 0, apperr.Resolution(m.entity, reference, m.variants(reference))
}

// variants produces the ordered list of lookup keys tried for a reference.
func (m *Map) variants(reference string) []string {
	normalizedSlug := natkey.Slug(reference)
	return dedupeKeys([]string{
		reference,
		normalizedSlug,
		natkey.StripIDSuffix(normalizedSlug),
		slug.From(reference),
		natkey.Name(reference),
	})
}

// dedupeKeys removes empty and repeated keys while preserving order.
func dedupeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// # Store-Backed Construction

// Build queries the just-written rows of a phase and registers each one
// under all variants of its natural-key columns.
//
// # Parameters
//   - q: Pool or transaction to read from.
//   - table: Fully qualified table name.
//   - idColumn: Surrogate ID column.
//   - keyColumns: Natural-key columns (e.g. name, or slug and title).
func Build(ctx context.Context, q postgres.Querier, entity, table, idColumn string, keyColumns ...string) (*Map, error) {
	m := NewMap(entity)

	columns := idColumn
	for _, kc := range keyColumns {
		columns += ", " + kc
	}
	query := fmt.Sprintf(`SELECT %s FROM %s`, columns, table)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("resolve: querying %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		keys := make([]string, len(keyColumns))
		dests := make([]any, 0, len(keyColumns)+1)
		dests = append(dests, &id)
		for i := range keys {
			dests = append(dests, &keys[i])
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("resolve: scanning %s row: %w", table, err)
		}
		m.Add(id, keys...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve: iterating %s rows: %w", table, err)
	}

	return m, nil
}
