// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-seeder/internal/ingest/source"
	"github.com/taibuivan/yomira-seeder/internal/ingest/validate"
)

/*
TestValidateComic_Complete verifies normalization of a fully populated record.
*/
func TestValidateComic_Complete(t *testing.T) {
	raw := source.Record{
		"title":        "Hero Saga",
		"slug":         "hero-saga",
		"description":  "A long journey.",
		"cover":        "https://cdn.example.com/hero.jpg",
		"status":       "Publishing",
		"published_at": "2021-03-01",
		"author":       "Jane Doe",
		"artist":       "John Roe",
		"type":         "Manga",
		"genres":       []any{"Action", "Drama"},
		"rating":       4.5,
		"views":        float64(12000),
	}

	comic, err := validate.ValidateComic(raw)
	require.Nil(t, err)

	assert.Equal(t, "Hero Saga", comic.Title)
	assert.Equal(t, "hero-saga", comic.Slug)
	require.NotNil(t, comic.Description)
	assert.Equal(t, "A long journey.", *comic.Description)
	assert.Equal(t, validate.StatusOngoing, comic.Status)
	require.NotNil(t, comic.PublishedAt)
	assert.Equal(t, 2021, comic.PublishedAt.Year())
	assert.Equal(t, "Jane Doe", comic.AuthorRef)
	assert.Equal(t, []string{"Action", "Drama"}, comic.GenreRefs)
	assert.Equal(t, int64(12000), comic.Views)
}

/*
TestValidateComic_AlternateFieldNames verifies that older export generations
still normalize: nested reference objects, legacy field spellings.
*/
func TestValidateComic_AlternateFieldNames(t *testing.T) {
	raw := source.Record{
		"name":       "Hero Saga",
		"comic_slug": "hero-saga",
		"thumbnail":  "https://cdn.example.com/hero.png",
		"author":     map[string]any{"slug": "jane-doe", "name": "Jane Doe"},
		"category":   "Webtoon",
		"tags":       []any{map[string]any{"name": "Action"}},
	}

	comic, err := validate.ValidateComic(raw)
	require.Nil(t, err)

	assert.Equal(t, "Hero Saga", comic.Title)
	assert.Equal(t, "jane-doe", comic.AuthorRef)
	assert.Equal(t, "Webtoon", comic.TypeRef)
	assert.Equal(t, []string{"Action"}, comic.GenreRefs)
	assert.Equal(t, validate.StatusUnknown, comic.Status)
}

/*
TestValidateComic_Rejections verifies the strict identity rules.
*/
func TestValidateComic_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		raw   source.Record
		field string
	}{
		{
			"missing_title",
			source.Record{"slug": "x", "author": "A", "type": "Manga"},
			"title",
		},
		{
			"missing_slug",
			source.Record{"title": "X", "author": "A", "type": "Manga"},
			"slug",
		},
		{
			"malformed_slug",
			source.Record{"title": "X", "slug": "Not A Slug", "author": "A", "type": "Manga"},
			"slug",
		},
		{
			"missing_author",
			source.Record{"title": "X", "slug": "x", "type": "Manga"},
			"author",
		},
		{
			"rating_out_of_range",
			source.Record{"title": "X", "slug": "x", "author": "A", "type": "Manga", "rating": 11.0},
			"rating",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.ValidateComic(tt.raw)
			require.NotNil(t, err)

			fields := make([]string, 0, len(err.Details))
			for _, d := range err.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

/*
TestValidateChapter_DerivedFields verifies that missing title and slug are
derived from the chapter number rather than rejected.
*/
func TestValidateChapter_DerivedFields(t *testing.T) {
	raw := source.Record{
		"comic":          "hero-saga",
		"chapter_number": 10.5,
	}

	chapter, err := validate.ValidateChapter(raw)
	require.Nil(t, err)

	assert.Equal(t, 10.5, chapter.Number)
	assert.Equal(t, "Chapter 10.5", chapter.Title)
	assert.Equal(t, "chapter-10-5", chapter.Slug)
}

/*
TestValidateChapter_Rejections verifies the chapter natural-key requirements.
*/
func TestValidateChapter_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  source.Record
	}{
		{"missing_comic", source.Record{"chapter_number": 1.0}},
		{"missing_number", source.Record{"comic": "hero-saga"}},
		{"negative_number", source.Record{"comic": "hero-saga", "chapter_number": -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.ValidateChapter(tt.raw)
			assert.NotNil(t, err)
		})
	}
}

/*
TestValidateUser verifies account normalization: lowercased email, defaulted
role, role allow-list.
*/
func TestValidateUser(t *testing.T) {
	// 1. Role defaults to "user" and email is lowercased.
	user, err := validate.ValidateUser(source.Record{
		"username": "reader1",
		"email":    "Reader@Example.com",
	})
	require.Nil(t, err)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, "user", user.Role)

	// 2. Unknown roles are rejected.
	_, err = validate.ValidateUser(source.Record{
		"username": "reader1",
		"email":    "reader@example.com",
		"role":     "superuser",
	})
	assert.NotNil(t, err)
}

/*
TestBatch_PartialFailure verifies batch isolation: one invalid record in a
hundred leaves the other ninety-nine untouched.
*/
func TestBatch_PartialFailure(t *testing.T) {
	records := make([]source.Record, 0, 100)
	for i := 0; i < 100; i++ {
		r := source.Record{
			"title":  fmt.Sprintf("Comic %d", i),
			"slug":   fmt.Sprintf("comic-%d", i),
			"author": "Jane Doe",
			"type":   "Manga",
		}
		if i == 50 {
			delete(r, "slug")
		}
		records = append(records, r)
	}

	valid, failures := validate.Batch(records, validate.ValidateComic)

	assert.Len(t, valid, 99)
	require.Len(t, failures, 1)
	assert.Equal(t, "Comic 50", failures[0].Raw["title"])
	assert.Equal(t, "VALIDATION_ERROR", failures[0].Err.Code)
}

/*
TestStatusNormalization verifies the alias table across export generations.
*/
func TestStatusNormalization(t *testing.T) {
	tests := []struct {
		raw      string
		expected validate.Status
	}{
		{"ongoing", validate.StatusOngoing},
		{"Publishing", validate.StatusOngoing},
		{"COMPLETE", validate.StatusCompleted},
		{"finished", validate.StatusCompleted},
		{"on hiatus", validate.StatusHiatus},
		{"canceled", validate.StatusCancelled},
		{"dropped", validate.StatusCancelled},
		{"", validate.StatusUnknown},
		{"gibberish", validate.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run("status_"+tt.raw, func(t *testing.T) {
			comic, err := validate.ValidateComic(source.Record{
				"title":  "X",
				"slug":   "x",
				"author": "A",
				"type":   "Manga",
				"status": tt.raw,
			})
			require.Nil(t, err)
			assert.Equal(t, tt.expected, comic.Status)
		})
	}
}

/*
TestOptionalDate_BareYear verifies that a numeric publication year is accepted
and pinned to January 1st UTC.
*/
func TestOptionalDate_BareYear(t *testing.T) {
	comic, err := validate.ValidateComic(source.Record{
		"title":  "X",
		"slug":   "x",
		"author": "A",
		"type":   "Manga",
		"year":   float64(1999),
	})
	require.Nil(t, err)

	require.NotNil(t, comic.PublishedAt)
	assert.Equal(t, time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC), *comic.PublishedAt)
}

/*
TestStatusValues_AdmittedBySchema pins the contract between status
normalization and the comic table's CHECK constraint: every canonical status —
including the "unknown" default for records whose export carries no
recognizable status — must be insertable, so a record-level normalization can
never surface later as a phase-aborting batch write failure.
*/
func TestStatusValues_AdmittedBySchema(t *testing.T) {
	ddl, readErr := os.ReadFile(filepath.Join("..", "..", "..", "data", "migrations", "000001_create_seed_schema.up.sql"))
	require.NoError(t, readErr)

	statuses := []validate.Status{
		validate.StatusOngoing,
		validate.StatusCompleted,
		validate.StatusHiatus,
		validate.StatusCancelled,
		validate.StatusUnknown,
	}
	for _, status := range statuses {
		assert.Contains(t, string(ddl), fmt.Sprintf("'%s'", status),
			"status %q missing from comic_status_check", status)
	}

	// A record with no status field at all must normalize to one of the
	// admitted values.
	comic, err := validate.ValidateComic(source.Record{
		"title":  "X",
		"slug":   "x",
		"author": "A",
		"type":   "Manga",
	})
	require.Nil(t, err)
	assert.Equal(t, validate.StatusUnknown, comic.Status)
}
