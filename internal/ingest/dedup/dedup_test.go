// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-seeder/internal/ingest/dedup"
)

type item struct {
	Slug  string
	Title string
}

/*
TestExact_FirstOccurrenceWins verifies the deterministic resolution order:
when three records share a key, the first in input order is kept and the
later two are skipped.
*/
func TestExact_FirstOccurrenceWins(t *testing.T) {
	records := []item{
		{Slug: "x", Title: "A"},
		{Slug: "x", Title: "B"},
		{Slug: "x", Title: "C"},
	}

	unique, conflicts := dedup.Exact(records, "slug", dedup.KindSlug, func(i item) string {
		return i.Slug
	})

	// 1. Only record A survives.
	require.Len(t, unique, 1)
	assert.Equal(t, "A", unique[0].Title)

	// 2. One conflict describing all three entries.
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, dedup.SeverityCritical, c.Severity)
	assert.Equal(t, "x", c.Value)
	require.Len(t, c.Entries, 3)
	assert.True(t, c.Entries[0].Kept)
	assert.False(t, c.Entries[1].Kept)
	assert.False(t, c.Entries[2].Kept)
	assert.Equal(t, 2, c.Skipped())
}

/*
TestExact_NormalizedKeysCollide verifies that key comparison happens on the
normalized form: "Hero-Saga" and "hero-saga" are the same slug.
*/
func TestExact_NormalizedKeysCollide(t *testing.T) {
	records := []item{
		{Slug: "Hero-Saga"},
		{Slug: "hero-saga"},
	}

	unique, conflicts := dedup.Exact(records, "slug", dedup.KindSlug, func(i item) string {
		return i.Slug
	})

	assert.Len(t, unique, 1)
	require.Len(t, conflicts, 1)
	// The conflict carries the raw labels, not the normalized key.
	assert.Equal(t, "Hero-Saga", conflicts[0].Entries[0].Label)
	assert.Equal(t, "hero-saga", conflicts[0].Entries[1].Label)
}

/*
TestExact_EmptyKeysNeverCollapse verifies that records whose key normalizes
to the empty string are all kept: an empty key identifies nothing.
*/
func TestExact_EmptyKeysNeverCollapse(t *testing.T) {
	records := []item{
		{Slug: "", Title: "A"},
		{Slug: "  ", Title: "B"},
		{Slug: "real", Title: "C"},
	}

	unique, conflicts := dedup.Exact(records, "slug", dedup.KindSlug, func(i item) string {
		return i.Slug
	})

	assert.Len(t, unique, 3)
	assert.Empty(t, conflicts)
}

/*
TestFuzzy_NeverRemoves verifies the advisory contract: fuzzy title matches
are reported as warnings but the working set is untouched.
*/
func TestFuzzy_NeverRemoves(t *testing.T) {
	records := []item{
		{Slug: "hero-saga", Title: "Hero Saga"},
		{Slug: "hero-saga-2", Title: "Hero Saga"},
		{Slug: "other", Title: "Completely Different"},
	}

	conflicts := dedup.Fuzzy(records, "title", 90, func(i item) string {
		return i.Title
	})

	// 1. Identical titles group with 100% similarity.
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, dedup.SeverityWarning, c.Severity)
	require.Len(t, c.Entries, 2)
	assert.InDelta(t, 100.0, c.Entries[1].Similarity, 0.01)

	// 2. Every entry is kept; nothing is ever removed by the fuzzy check.
	for _, e := range c.Entries {
		assert.True(t, e.Kept)
	}
	assert.Zero(t, c.Skipped())
}

/*
TestFuzzy_BelowThresholdIgnored verifies that dissimilar titles produce no
conflicts at all.
*/
func TestFuzzy_BelowThresholdIgnored(t *testing.T) {
	records := []item{
		{Title: "Hero Saga"},
		{Title: "Space Pirates"},
	}

	conflicts := dedup.Fuzzy(records, "title", 90, func(i item) string {
		return i.Title
	})
	assert.Empty(t, conflicts)
}

/*
TestFuzzy_ClusterAnchorsOnce verifies that a cluster of similar titles yields
one conflict anchored on its first member, not a pair per combination.
*/
func TestFuzzy_ClusterAnchorsOnce(t *testing.T) {
	records := []item{
		{Title: "Hero Saga"},
		{Title: "Hero Sagaa"},
		{Title: "Hero Sagas"},
	}

	conflicts := dedup.Fuzzy(records, "title", 85, func(i item) string {
		return i.Title
	})

	require.Len(t, conflicts, 1)
	assert.Len(t, conflicts[0].Entries, 3)
	assert.Equal(t, 0, conflicts[0].Entries[0].Index)
}

/*
TestSummarize verifies that the summary is derivable from the conflict list
alone.
*/
func TestSummarize(t *testing.T) {
	records := []item{
		{Slug: "x", Title: "Hero Saga"},
		{Slug: "x", Title: "Hero Saga II"},
		{Slug: "y", Title: "Hero Saga"},
		{Slug: "z", Title: "Hero Sagaa"},
	}

	unique, exact := dedup.Exact(records, "slug", dedup.KindSlug, func(i item) string {
		return i.Slug
	})
	fuzzy := dedup.Fuzzy(unique, "title", 85, func(i item) string {
		return i.Title
	})

	summary := dedup.Summarize(append(exact, fuzzy...))

	assert.Equal(t, 1, summary.ByField["slug"])
	assert.Equal(t, 1, summary.ByField["title"])
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Warnings)
}
