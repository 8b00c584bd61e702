// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration upgrades the schema by exactly one version. Migrations[i]
// brings the database from user_version i to i+1.
type Migration func(ctx context.Context, tx *sql.Tx) error

// UserVersion reads PRAGMA user_version.
func UserVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("sqlite: read user_version: %w", err)
	}
	return v, nil
}

// Migrate applies every pending migration inside one transaction and stamps
// the resulting user_version. A database newer than the binary is rejected.
func Migrate(ctx context.Context, db *sql.DB, migrations []Migration) error {
	current, err := UserVersion(ctx, db)
	if err != nil {
		return err
	}
	target := len(migrations)
	if current > target {
		return fmt.Errorf("sqlite: schema version %d is newer than supported %d", current, target)
	}
	if current == target {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for v := current; v < target; v++ {
		if err := migrations[v](ctx, tx); err != nil {
			return fmt.Errorf("sqlite: migration %d -> %d: %w", v, v+1, err)
		}
	}
	// PRAGMA does not accept bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return err
	}
	return tx.Commit()
}

// ExecAll returns a Migration running the statements in order.
func ExecAll(stmts ...string) Migration {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}
