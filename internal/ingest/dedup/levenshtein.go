// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dedup

// Levenshtein computes the edit distance between two strings, counted in
// runes so multi-byte titles (Japanese, Korean) compare correctly.
//
// Uses the two-row dynamic programming formulation: O(len(a)*len(b)) time,
// O(min-side) memory.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Keep the shorter string on the row axis to minimize the buffer.
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		previous[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[j] = min(
				previous[j]+1,      // deletion
				current[j-1]+1,     // insertion
				previous[j-1]+cost, // substitution
			)
		}
		previous, current = current, previous
	}

	return previous[len(rb)]
}

// Similarity scores how close two strings are as a percentage:
//
//	similarity = (max(len1, len2) - editDistance) / max(len1, len2) * 100
//
// Two empty strings are 100% similar by convention.
func Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 100
	}
	distance := Levenshtein(a, b)
	return float64(longest-distance) / float64(longest) * 100
}
