// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package natkey normalizes natural keys (slugs, names, titles) so that the
// duplicate detector and the entity resolver agree on what "the same key"
// means across export files produced by different generation processes.
package natkey

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// nonSlugChars matches anything outside the canonical slug alphabet.
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	// whitespaceRun matches one or more consecutive whitespace characters.
	whitespaceRun = regexp.MustCompile(`\s+`)
	// idSuffix matches a trailing hyphen-separated opaque identifier, the
	// kind some exporters append to disambiguate slugs (e.g. "hero-saga-a1b2c3").
	idSuffix = regexp.MustCompile(`-[a-z0-9]{5,}$`)
)

// Slug normalizes a slug-like key: lowercase, trimmed, with every character
// outside [a-z0-9-] removed.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return nonSlugChars.ReplaceAllString(s, "")
}

// Name normalizes a name-like key: lowercase, trimmed, with internal
// whitespace runs collapsed to a single space.
func Name(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRun.ReplaceAllString(s, " ")
}

// StripIDSuffix removes a trailing opaque-ID segment from a slug, if present.
// The segment must contain at least one digit: a plain word at the end of a
// slug ("hero-saga-returns") is part of the title, not an identifier.
func StripIDSuffix(slug string) string {
	match := idSuffix.FindString(slug)
	if match == "" {
		return slug
	}
	if !strings.ContainsFunc(match, unicode.IsDigit) {
		return slug
	}
	return strings.TrimSuffix(slug, match)
}
