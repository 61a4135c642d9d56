// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-seeder/internal/ingest/resolve"
)

/*
TestMap_ResolvesEveryVariant verifies that an entity registered under its
natural keys is resolvable by any spelling a foreign export might use.
*/
func TestMap_ResolvesEveryVariant(t *testing.T) {
	m := resolve.NewMap("author")
	m.Add(42, "Jane Doe")

	tests := []struct {
		name      string
		reference string
	}{
		{"exact", "Jane Doe"},
		{"lowercased", "jane doe"},
		{"whitespace_run", "Jane  Doe"},
		{"slugified", "jane-doe"},
		{"concatenated_slug", "janedoe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := m.Resolve(tt.reference)
			require.True(t, ok)
			assert.Equal(t, int64(42), id)
		})
	}
}

/*
TestMap_SuffixedSlugResolves verifies that a reference carrying an exporter's
opaque disambiguation suffix still resolves to the canonical entity.
*/
func TestMap_SuffixedSlugResolves(t *testing.T) {
	m := resolve.NewMap("comic")
	m.Add(7, "hero-saga", "Hero Saga")

	id, ok := m.Resolve("hero-saga-x1f9k2")
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

/*
TestMap_FirstRegistrationWins verifies that colliding variants from a later
entity do not overwrite an earlier registration.
*/
func TestMap_FirstRegistrationWins(t *testing.T) {
	m := resolve.NewMap("author")
	m.Add(1, "Jane Doe")
	m.Add(2, "jane doe") // same normalized name, different entity

	id, ok := m.Resolve("Jane Doe")
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
}

/*
TestMap_ResolveOrError verifies that an unresolvable reference yields a
RESOLUTION_ERROR carrying every attempted key variant.
*/
func TestMap_ResolveOrError(t *testing.T) {
	m := resolve.NewMap("comic")
	m.Add(7, "hero-saga")

	// 1. Known reference resolves without error.
	id, err := m.ResolveOrError("hero-saga")
	require.Nil(t, err)
	assert.Equal(t, int64(7), id)

	// 2. Unknown reference produces a record-level error with context.
	_, err = m.ResolveOrError("Space Pirates")
	require.NotNil(t, err)
	assert.Equal(t, "RESOLUTION_ERROR", err.Code)
	assert.Equal(t, "Space Pirates", err.Context["reference"])
	assert.Contains(t, err.Context["attempted_keys"], "space pirates")
}

/*
TestMap_AddSynthetic verifies dry-run ID allocation: negative, unique, and
resolvable like real IDs.
*/
func TestMap_AddSynthetic(t *testing.T) {
	m := resolve.NewMap("genre")

	first := m.AddSynthetic("Action")
	second := m.AddSynthetic("Drama")

	assert.Negative(t, first)
	assert.Negative(t, second)
	assert.NotEqual(t, first, second)

	id, ok := m.Resolve("action")
	require.True(t, ok)
	assert.Equal(t, first, id)

	assert.Equal(t, "genre", m.Entity())
}
