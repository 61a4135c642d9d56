// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package upsert implements the generic, chunked insert-or-update engine that
gives the pipeline its idempotence guarantee.

Records are written in fixed-size batches, each as a single multi-row INSERT
with an ON CONFLICT clause keyed on the table's natural-key columns: a record
with a known natural key gets its mutable fields refreshed instead of
producing a duplicate row. The updatedat timestamp is always part of the
update set, so every touched row reflects the most recent run.

A batch failure propagates to the caller and aborts the phase; earlier
batches in the same call may already be applied (the phase transaction
decides whether they survive). The engine never retries — re-running the
phase is safe precisely because upserts are idempotent.
*/
package upsert

import (
	"context"
	"fmt"
	"strings"

	"github.com/taibuivan/yomira-seeder/internal/platform/constants"
	"github.com/taibuivan/yomira-seeder/internal/platform/dberr"
	"github.com/taibuivan/yomira-seeder/internal/platform/postgres"
)

// Spec describes one upsert target.
type Spec struct {
	// Table is the fully qualified target table.
	Table string
	// Columns are the insert columns, in row-value order.
	Columns []string
	// KeyColumns are the natural-key columns named in the conflict target.
	KeyColumns []string
	// UpdateColumns are the mutable fields refreshed on conflict. Empty means
	// DO NOTHING: existing rows are left untouched.
	UpdateColumns []string
	// BatchSize is the number of rows per statement; zero means the default.
	BatchSize int
	// DryRun short-circuits before any write, returning the same result
	// shape as a successful run.
	DryRun bool
}

// Result reports what an upsert call did (or, in dry-run mode, would do).
type Result struct {
	// Written is the number of rows inserted or updated.
	Written int
	// Batches is the number of statements issued.
	Batches int
}

// timestampColumn is always appended to the update set.
const timestampColumn = "updatedat"

// Run writes rows to the spec's table in chunked upsert statements.
// rows must each have exactly len(spec.Columns) values.
func Run(ctx context.Context, q postgres.Querier, spec Spec, rows [][]any) (Result, error) {
	batchSize := spec.BatchSize
	if batchSize <= 0 {
		batchSize = constants.DefaultBatchSize
	}

	batches := (len(rows) + batchSize - 1) / batchSize

	if spec.DryRun {
		// Rehearsal: report the shape of the work without touching the store.
		return Result{Written: len(rows), Batches: batches}, nil
	}

	result := Result{}
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		chunk := rows[start:end]

		statement := Statement(spec, len(chunk))
		args := flatten(chunk)

		tag, err := q.Exec(ctx, statement, args...)
		if err != nil {
			return result, dberr.Wrap(err, spec.Table, result.Batches)
		}

		result.Written += int(tag.RowsAffected())
		result.Batches++
	}

	return result, nil
}

// Statement renders the upsert SQL for a batch of rowCount rows.
//
// # Shape
//
//	INSERT INTO t (a, b) VALUES ($1, $2), ($3, $4)
//	ON CONFLICT (a) DO UPDATE SET b = EXCLUDED.b, updatedat = NOW()
func Statement(spec Spec, rowCount int) string {
	var sb strings.Builder

	sb.WriteString("INSERT INTO ")
	sb.WriteString(spec.Table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(spec.Columns, ", "))
	sb.WriteString(") VALUES ")

	placeholder := 1
	for row := 0; row < rowCount; row++ {
		if row > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for col := range spec.Columns {
			if col > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", placeholder)
			placeholder++
		}
		sb.WriteString(")")
	}

	sb.WriteString(" ON CONFLICT (")
	sb.WriteString(strings.Join(spec.KeyColumns, ", "))
	sb.WriteString(")")

	if len(spec.UpdateColumns) == 0 {
		sb.WriteString(" DO NOTHING")
		return sb.String()
	}

	sb.WriteString(" DO UPDATE SET ")
	for i, col := range spec.UpdateColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = EXCLUDED.%s", col, col)
	}

	// Every touched row reflects the most recent seeding run, regardless of
	// the caller-specified update set.
	if !contains(spec.UpdateColumns, timestampColumn) {
		fmt.Fprintf(&sb, ", %s = NOW()", timestampColumn)
	}

	return sb.String()
}

// flatten concatenates row values into a single positional argument list.
func flatten(rows [][]any) []any {
	if len(rows) == 0 {
		return nil
	}
	args := make([]any, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		args = append(args, row...)
	}
	return args
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
