// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"context"

	"github.com/taibuivan/yomira-seeder/internal/ingest/dedup"
	"github.com/taibuivan/yomira-seeder/internal/ingest/report"
	"github.com/taibuivan/yomira-seeder/internal/ingest/upsert"
	"github.com/taibuivan/yomira-seeder/internal/ingest/validate"
	"github.com/taibuivan/yomira-seeder/internal/platform/postgres"
	"github.com/taibuivan/yomira-seeder/internal/platform/schema"
	"github.com/taibuivan/yomira-seeder/internal/platform/sec"
)

// runUserPhase seeds accounts from the user export. Email is the natural
// key. Fresh rows receive a shared temporary bcrypt hash; on conflict only
// username and role are refreshed, so an existing account's real password
// hash is never clobbered by a re-seed.
func (pc *Context) runUserPhase(ctx context.Context, phase *report.Phase, paths []string) error {
	valid := loadAndValidate(pc, phase, "user", paths, validate.ValidateUser)

	unique, conflicts := dedup.Exact(valid, "email", dedup.KindName, func(u validate.User) string {
		return u.Email
	})
	pc.recordConflicts(phase, conflicts)

	// One hash for the whole batch: bcrypt is deliberately slow, and every
	// seeded account starts from the same forced-reset password anyway.
	passwordHash, err := sec.HashPassword(pc.Config.SeedUserPassword)
	if err != nil {
		return err
	}

	rows := make([][]any, len(unique))
	for i, u := range unique {
		rows[i] = []any{u.Username, u.Email, u.Role, passwordHash}
	}

	spec := upsert.Spec{
		Table: schema.User.Table,
		Columns: []string{
			schema.User.Username, schema.User.Email,
			schema.User.Role, schema.User.PasswordHash,
		},
		KeyColumns:    []string{schema.User.Email},
		UpdateColumns: []string{schema.User.Username, schema.User.Role},
		BatchSize:     pc.Config.BatchSize,
		DryRun:        pc.DryRun,
	}

	if pc.DryRun {
		result, err := upsert.Run(ctx, nil, spec, rows)
		if err != nil {
			return err
		}
		phase.Add(report.Counts{Inserted: result.Written})
		return nil
	}

	var written, inserted int64
	err = pc.inTx(ctx, func(q postgres.Querier) error {
		before, err := countRows(ctx, q, schema.User.Table)
		if err != nil {
			return err
		}

		result, err := upsert.Run(ctx, q, spec, rows)
		if err != nil {
			return err
		}
		written = int64(result.Written)

		after, err := countRows(ctx, q, schema.User.Table)
		if err != nil {
			return err
		}
		inserted = after - before
		return nil
	})
	if err != nil {
		return err
	}

	phase.Add(report.Counts{
		Inserted: int(inserted),
		Updated:  int(written - inserted),
	})
	return nil
}
