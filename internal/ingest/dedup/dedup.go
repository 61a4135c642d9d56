// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package dedup detects duplicate records in the validated working set.

Two independent checks run in sequence:

  - Exact: normalized natural keys (slug or name). Severity CRITICAL. The
    first occurrence wins deterministically; every later occurrence is
    dropped from the working set and reported as skipped.
  - Fuzzy: pairwise title similarity via edit distance. Severity WARNING,
    informational only. Similar titles are grouped for operator review but
    never removed, because title similarity alone is not proof of
    duplication (sequels, translated titles).

The conflict list is self-contained: per-field counts and total skips are
computable from it without re-scanning the input.
*/
package dedup

import (
	"fmt"

	"github.com/taibuivan/yomira-seeder/internal/ingest/natkey"
)

// Severity classifies how a conflict was handled.
type Severity string

const (
	// SeverityCritical marks an exact natural-key collision; duplicates were
	// skipped from the working set.
	SeverityCritical Severity = "critical"
	// SeverityWarning marks a fuzzy title match; nothing was removed.
	SeverityWarning Severity = "warning"
)

// KeyKind selects the normalization applied to a natural key before comparison.
type KeyKind int

const (
	// KindSlug lowercases, trims, and strips characters outside [a-z0-9-].
	KindSlug KeyKind = iota
	// KindName lowercases, trims, and collapses internal whitespace.
	KindName
)

// normalize applies the kind's normalization to a raw key.
func (k KeyKind) normalize(raw string) string {
	if k == KindSlug {
		return natkey.Slug(raw)
	}
	return natkey.Name(raw)
}

// Entry is one record implicated in a conflict.
type Entry struct {
	// Index is the record's position in the original input ordering.
	Index int `json:"index"`
	// Label is the record's raw key value as supplied by the export.
	Label string `json:"label"`
	// Kept is true for the record that remained in the working set.
	// Every entry of a fuzzy conflict is kept.
	Kept bool `json:"kept"`
	// Similarity is the title similarity against the conflict's anchor,
	// in percent. Zero for exact conflicts and for the anchor itself.
	Similarity float64 `json:"similarity,omitempty"`
}

// Conflict describes one group of colliding records.
type Conflict struct {
	Field          string   `json:"field"`
	Severity       Severity `json:"severity"`
	Value          string   `json:"value"` // the normalized matched key
	Entries        []Entry  `json:"entries"`
	Recommendation string   `json:"recommendation"`
}

// Skipped counts the entries this conflict removed from the working set.
func (c Conflict) Skipped() int {
	n := 0
	for _, e := range c.Entries {
		if !e.Kept {
			n++
		}
	}
	return n
}

// # Exact Check

// Exact removes exact natural-key duplicates from records, walking them in
// original order so the first occurrence of each normalized key always wins.
// keyOf extracts the raw key from a record.
//
// Records whose key normalizes to the empty string are kept untouched: an
// empty key identifies nothing and must not collapse unrelated records.
func Exact[T any](records []T, field string, kind KeyKind, keyOf func(T) string) ([]T, []Conflict) {
	type group struct {
		keptIndex int
		keptLabel string
		dupes     []Entry
	}

	unique := make([]T, 0, len(records))
	seen := make(map[string]*group)
	order := make([]string, 0)

	for i, record := range records {
		raw := keyOf(record)
		key := kind.normalize(raw)
		if key == "" {
			unique = append(unique, record)
			continue
		}

		if g, ok := seen[key]; ok {
			g.dupes = append(g.dupes, Entry{Index: i, Label: raw})
			continue
		}

		seen[key] = &group{keptIndex: i, keptLabel: raw}
		order = append(order, key)
		unique = append(unique, record)
	}

	var conflicts []Conflict
	for _, key := range order {
		g := seen[key]
		if len(g.dupes) == 0 {
			continue
		}

		entries := make([]Entry, 0, len(g.dupes)+1)
		entries = append(entries, Entry{Index: g.keptIndex, Label: g.keptLabel, Kept: true})
		entries = append(entries, g.dupes...)

		conflicts = append(conflicts, Conflict{
			Field:    field,
			Severity: SeverityCritical,
			Value:    key,
			Entries:  entries,
			Recommendation: fmt.Sprintf(
				"kept first occurrence (record #%d); %d duplicate(s) skipped — verify no fields were lost",
				g.keptIndex, len(g.dupes),
			),
		})
	}

	return unique, conflicts
}

// # Fuzzy Check

// Fuzzy reports groups of records whose normalized titles score at or above
// threshold (percent). It never modifies the working set; the caller's
// record slice is exactly as long after the check as before it.
//
// Each record is compared only against records not yet grouped, so a cluster
// of similar titles produces a single conflict anchored on its first member.
func Fuzzy[T any](records []T, field string, threshold float64, titleOf func(T) string) []Conflict {
	titles := make([]string, len(records))
	for i, record := range records {
		titles[i] = natkey.Name(titleOf(record))
	}

	var conflicts []Conflict
	grouped := make([]bool, len(records))

	for i := range records {
		if grouped[i] || titles[i] == "" {
			continue
		}

		var entries []Entry
		maxSimilarity := 0.0

		for j := i + 1; j < len(records); j++ {
			if grouped[j] || titles[j] == "" {
				continue
			}
			similarity := Similarity(titles[i], titles[j])
			if similarity < threshold {
				continue
			}

			entries = append(entries, Entry{
				Index:      j,
				Label:      titleOf(records[j]),
				Kept:       true,
				Similarity: similarity,
			})
			grouped[j] = true
			maxSimilarity = max(maxSimilarity, similarity)
		}

		if len(entries) == 0 {
			continue
		}

		grouped[i] = true
		anchor := Entry{Index: i, Label: titleOf(records[i]), Kept: true}
		conflicts = append(conflicts, Conflict{
			Field:    field,
			Severity: SeverityWarning,
			Value:    titles[i],
			Entries:  append([]Entry{anchor}, entries...),
			Recommendation: fmt.Sprintf(
				"titles are >= %.0f%% similar (max %.1f%%) — confirm these are distinct works, not unintended duplicates",
				threshold, maxSimilarity,
			),
		})
	}

	return conflicts
}

// # Summary

// Summary aggregates a conflict list. It is computed from the conflicts
// alone, never from the original input.
type Summary struct {
	ByField  map[string]int `json:"by_field"` // conflicts per checked field
	Skipped  int            `json:"skipped"`  // records removed by exact checks
	Warnings int            `json:"warnings"` // fuzzy groups reported
}

// Summarize derives per-field counts and totals from a conflict list.
func Summarize(conflicts []Conflict) Summary {
	s := Summary{ByField: make(map[string]int)}
	for _, c := range conflicts {
		s.ByField[c.Field]++
		switch c.Severity {
		case SeverityCritical:
			s.Skipped += c.Skipped()
		case SeverityWarning:
			s.Warnings++
		}
	}
	return s
}
