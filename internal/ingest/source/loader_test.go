// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-seeder/internal/ingest/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

/*
TestLoader_MergesFiles verifies that records from every parseable candidate
file are unioned in path order.
*/
func TestLoader_MergesFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "comics.json", `[{"title": "A"}, {"title": "B"}]`)
	second := writeFile(t, dir, "mangas.json", `[{"title": "C"}]`)

	loader := source.NewLoader(testLogger())
	records, errs := loader.Load("comic", []string{first, second})

	require.Empty(t, errs)
	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0]["title"])
	assert.Equal(t, "C", records[2]["title"])
}

/*
TestLoader_MissingFileSkipped verifies that an absent candidate file is an
expected condition, not an error.
*/
func TestLoader_MissingFileSkipped(t *testing.T) {
	dir := t.TempDir()
	present := writeFile(t, dir, "comics.json", `[{"title": "A"}]`)
	missing := filepath.Join(dir, "mangas.json")

	loader := source.NewLoader(testLogger())
	records, errs := loader.Load("comic", []string{present, missing})

	assert.Empty(t, errs)
	assert.Len(t, records, 1)
}

/*
TestLoader_MalformedFileIsLocalError verifies that a corrupt file yields a
SOURCE_ERROR but does not suppress the other files' records.
*/
func TestLoader_MalformedFileIsLocalError(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "comics.json", `{not json`)
	healthy := writeFile(t, dir, "mangas.json", `[{"title": "A"}]`)

	loader := source.NewLoader(testLogger())
	records, errs := loader.Load("comic", []string{broken, healthy})

	require.Len(t, errs, 1)
	assert.Equal(t, "SOURCE_ERROR", errs[0].Code)
	assert.Equal(t, broken, errs[0].Context["path"])
	assert.Len(t, records, 1)
}

/*
TestLoader_WrapperObject verifies that exports wrapping their array under a
conventional key still load.
*/
func TestLoader_WrapperObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		count   int
	}{
		{"data_key", `{"data": [{"title": "A"}]}`, 1},
		{"items_key", `{"items": [{"title": "A"}, {"title": "B"}]}`, 2},
		{"results_key", `{"results": [{"title": "A"}]}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "export.json", tt.content)

			loader := source.NewLoader(testLogger())
			records, errs := loader.Load("comic", []string{path})

			assert.Empty(t, errs)
			assert.Len(t, records, tt.count)
		})
	}
}

/*
TestLoader_UnrecognizedWrapper verifies that an object without a known
wrapper key is rejected as malformed.
*/
func TestLoader_UnrecognizedWrapper(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "export.json", `{"payload": []}`)

	loader := source.NewLoader(testLogger())
	records, errs := loader.Load("comic", []string{path})

	assert.Empty(t, records)
	require.Len(t, errs, 1)
	assert.Equal(t, "SOURCE_ERROR", errs[0].Code)
}
