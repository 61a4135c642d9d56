// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// the pipeline's error taxonomy.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/yomira-seeder/internal/platform/apperr"
)

// ErrNotFound is a standard error returned when a queried row doesn't exist.
var ErrNotFound = errors.New("dberr: row not found")

// Wrap inspects a database error and classifies it for the execution report.
// Batch-level failures become BATCH_WRITE_ERROR; everything else is internal.
func Wrap(err error, table string, batch int) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint violations surface as batch write failures with the
	// offending constraint name attached, so the report points at the
	// conflicting natural key rather than a bare SQLSTATE.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		ae := apperr.BatchWrite(table, batch, err)
		if pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			ae.With("constraint", pgErr.ConstraintName).With("sqlstate", pgErr.Code)
		}
		return ae
	}

	// 3. Connectivity loss and other driver errors also abort the phase.
	return apperr.BatchWrite(table, batch, err)
}
