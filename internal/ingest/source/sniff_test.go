// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-seeder/internal/ingest/source"
)

/*
TestRecord_FirstString verifies ordered field extraction and reference-object
flattening.
*/
func TestRecord_FirstString(t *testing.T) {
	tests := []struct {
		name     string
		record   source.Record
		fields   []string
		expected string
	}{
		{
			"first_candidate_wins",
			source.Record{"title": "A", "name": "B"},
			[]string{"title", "name"},
			"A",
		},
		{
			"falls_through_empty",
			source.Record{"title": "  ", "name": "B"},
			[]string{"title", "name"},
			"B",
		},
		{
			"nested_ref_prefers_slug",
			source.Record{"author": map[string]any{"slug": "jane-doe", "name": "Jane Doe"}},
			[]string{"author"},
			"jane-doe",
		},
		{
			"nested_ref_falls_back_to_name",
			source.Record{"author": map[string]any{"name": "Jane Doe"}},
			[]string{"author"},
			"Jane Doe",
		},
		{
			"absent",
			source.Record{},
			[]string{"title"},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.FirstString(tt.fields...))
		})
	}
}

/*
TestRecord_FirstNumber verifies numeric extraction, including stringified
numbers from older exporters.
*/
func TestRecord_FirstNumber(t *testing.T) {
	tests := []struct {
		name     string
		record   source.Record
		fields   []string
		expected float64
		found    bool
	}{
		{"json_number", source.Record{"rating": 4.5}, []string{"rating"}, 4.5, true},
		{"stringified", source.Record{"rating": "4.5"}, []string{"rating"}, 4.5, true},
		{"stringified_zero", source.Record{"views": "0"}, []string{"views"}, 0, true},
		{"stringified_float_zero", source.Record{"rating": "0.0"}, []string{"rating"}, 0, true},
		{"padded_zero", source.Record{"views": " 0 "}, []string{"views"}, 0, true},
		{"absent", source.Record{}, []string{"rating"}, 0, false},
		{"non_numeric_string", source.Record{"rating": "high"}, []string{"rating"}, 0, false},
		{"non_numeric_falls_through", source.Record{"rating": "high", "score": 3.5}, []string{"rating", "score"}, 3.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, found := tt.record.FirstNumber(tt.fields...)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, value)
		})
	}
}

/*
TestRecord_FirstStringList verifies list extraction with mixed element shapes.
*/
func TestRecord_FirstStringList(t *testing.T) {
	record := source.Record{
		"genres": []any{"Action", "  ", map[string]any{"name": "Drama"}},
	}

	list := record.FirstStringList("genres", "tags")
	require.Len(t, list, 2)
	assert.Equal(t, []string{"Action", "Drama"}, list)
}
