// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package source discovers and parses the loosely-structured JSON export files
that feed the seeding pipeline.

Export sets vary in which files exist (a partial export may ship comics but
no chapters), so a missing file is an expected condition, not an error. A
malformed file is an error, but a local one: its contribution is empty and
the remaining files still load.

Core Responsibilities:

  - Union: Concatenates the arrays from every parseable file into a single
    in-memory collection per entity type. No file is authoritative over
    another; downstream deduplication handles overlap.
  - Tolerance: Missing files are skipped with a debug log entry.
  - Sniffing: Provides ordered field-name extraction strategies for records
    whose shape differs between export generations (see sniff.go).
*/
package source

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/taibuivan/yomira-seeder/internal/platform/apperr"
)

// Record is a single raw export record. Export files are loosely typed, so
// records stay as generic maps until the schema validator normalizes them.
type Record map[string]any

// Loader reads and merges JSON export files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader that logs skipped and failed files.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load returns the union of all parseable JSON arrays found at the candidate
// paths, in path order, plus one [apperr.AppError] per unreadable file.
//
// # Failure Semantics
//
//   - Missing file: skipped silently (debug log), not an error.
//   - Unreadable or malformed file: recorded as a SOURCE_ERROR; the other
//     files still contribute their records.
func (l *Loader) Load(entity string, paths []string) ([]Record, []*apperr.AppError) {
	var merged []Record
	var errs []*apperr.AppError

	for _, path := range paths {
		records, err := l.loadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				l.logger.Debug("source_file_missing",
					slog.String("entity", entity),
					slog.String("path", path),
				)
				continue
			}
			errs = append(errs, apperr.Source(path, err).With("entity", entity))
			l.logger.Warn("source_file_failed",
				slog.String("entity", entity),
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}

		merged = append(merged, records...)
		l.logger.Info("source_file_loaded",
			slog.String("entity", entity),
			slog.String("path", path),
			slog.Int("records", len(records)),
		)
	}

	return merged, errs
}

// loadFile parses a single export file. It accepts either a bare JSON array
// or an object wrapping the array under a conventional key ("data", "items",
// or the entity's plural), since both shapes occur in the wild.
func (l *Loader) loadFile(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	// Fall back to the wrapped-object shape.
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	for _, key := range []string{"data", "items", "results"} {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	return nil, errors.New("source: file is neither a JSON array nor a recognized wrapper object")
}
