// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/reelhouse/internal/logging"
)

// Migration is a versioned schema change.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
	AppliedAt   time.Time
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name VARCHAR NOT NULL,
	description VARCHAR,
	applied_at TIMESTAMP NOT NULL
);
`

// migrations is append-only: never edit or remove an applied entry.
var migrations = []Migration{
	{
		Version:     1,
		Name:        "create_videos",
		Description: "Video catalog for the stream handler",
		SQL: `
CREATE TABLE IF NOT EXISTS videos (
	id VARCHAR PRIMARY KEY,
	path VARCHAR NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	title VARCHAR NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);`,
	},
	{
		Version:     2,
		Name:        "create_dunning_attempts",
		Description: "Planned and settled dunning attempts",
		SQL: `
CREATE TABLE IF NOT EXISTS dunning_attempts (
	id VARCHAR PRIMARY KEY,
	subscription_id VARCHAR NOT NULL,
	invoice_id VARCHAR NOT NULL,
	stage VARCHAR NOT NULL,
	attempt_number INTEGER NOT NULL,
	actions VARCHAR NOT NULL,
	amount_due VARCHAR NOT NULL,
	currency VARCHAR NOT NULL,
	first_failed_at TIMESTAMP NOT NULL,
	next_attempt_at TIMESTAMP NOT NULL,
	attempted_at TIMESTAMP,
	status VARCHAR NOT NULL,
	error_message VARCHAR NOT NULL DEFAULT '',
	transaction_id VARCHAR NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dunning_attempts_invoice ON dunning_attempts (invoice_id);
CREATE INDEX IF NOT EXISTS idx_dunning_attempts_subscription ON dunning_attempts (subscription_id);`,
	},
	{
		Version:     3,
		Name:        "create_plan_change_requests",
		Description: "Plan change audit records with embedded proration",
		SQL: `
CREATE TABLE IF NOT EXISTS plan_change_requests (
	id VARCHAR PRIMARY KEY,
	subscription_id VARCHAR NOT NULL,
	old_plan_id VARCHAR NOT NULL,
	new_plan_id VARCHAR NOT NULL,
	old_plan_price VARCHAR NOT NULL,
	new_plan_price VARCHAR NOT NULL,
	currency VARCHAR NOT NULL,
	period_start TIMESTAMP NOT NULL,
	period_end TIMESTAMP NOT NULL,
	effective_date TIMESTAMP NOT NULL,
	net_amount VARCHAR NOT NULL,
	proration VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plan_change_requests_subscription ON plan_change_requests (subscription_id);`,
	},
}

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// runMigrations applies every migration not yet recorded, each in its own
// transaction together with its schema_migrations row.
func (db *DB) runMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	newMigrations := 0
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("applied", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
		m.Version, m.Name, m.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}
	return tx.Commit()
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
