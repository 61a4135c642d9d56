// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"strconv"
	"strings"
)

// Shape sniffing for loosely-typed export records.
//
// Different export generations use different field names for the same logical
// value ("author" vs "author_name" vs a nested {slug, name} object). Each
// helper takes an ordered list of candidate field names and returns the first
// non-empty match, so the priority order is explicit at the call site instead
// of scattered through conditional chains.

// FirstString returns the first candidate field that holds a non-empty
// string. Nested {slug, name} reference objects are flattened to their slug
// (preferred) or name, so foreign-key-looking values normalize to a bare
// identifier string.
func (r Record) FirstString(fields ...string) string {
	for _, field := range fields {
		switch v := r[field].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if s := refIdentifier(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// FirstNumber returns the first candidate field that holds a numeric value.
// JSON numbers decode as float64; quoted numerics ("4.5") are also accepted
// because some exporters stringify everything.
func (r Record) FirstNumber(fields ...string) (float64, bool) {
	for _, field := range fields {
		switch v := r[field].(type) {
		case float64:
			return v, true
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				// Not numeric; try the next candidate field.
				continue
			}
			return f, true
		}
	}
	return 0, false
}

// FirstStringList returns the first candidate field holding a non-empty list
// of strings. Elements that are reference objects are flattened the same way
// [Record.FirstString] flattens them; empty elements are dropped.
func (r Record) FirstStringList(fields ...string) []string {
	for _, field := range fields {
		items, ok := r[field].([]any)
		if !ok || len(items) == 0 {
			continue
		}

		var out []string
		for _, item := range items {
			switch v := item.(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if s := refIdentifier(v); s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// refIdentifier extracts the bare identifier from a nested reference object,
// preferring slug over name over title.
func refIdentifier(obj map[string]any) string {
	for _, key := range []string{"slug", "name", "title"} {
		if s, ok := obj[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
