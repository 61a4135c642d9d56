// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-seeder/internal/ingest/dedup"
)

/*
TestLevenshtein verifies the edit-distance kernel against known distances.
*/
func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical", "hero saga", "hero saga", 0},
		{"single_substitution", "kitten", "sitten", 1},
		{"classic_pair", "kitten", "sitting", 3},
		{"empty_left", "", "abc", 3},
		{"empty_right", "abc", "", 3},
		{"both_empty", "", "", 0},
		{"multibyte_runes", "さが", "さか", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dedup.Levenshtein(tt.a, tt.b))
		})
	}
}

/*
TestSimilarity verifies the percent score derived from edit distance.
*/
func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{"identical", "hero saga", "hero saga", 100},
		{"one_edit_in_ten", "hero sagaa", "hero sagas", 90},
		{"disjoint", "abc", "xyz", 0},
		{"both_empty", "", "", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dedup.Similarity(tt.a, tt.b), 0.01)
		})
	}
}
