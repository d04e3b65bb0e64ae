package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the history tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS batches (
		id           TEXT PRIMARY KEY,
		source       TEXT NOT NULL DEFAULT '',
		quantum_ns   INTEGER NOT NULL,
		started_at   TEXT NOT NULL,
		completed_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS processes (
		batch_id       TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		idx            INTEGER NOT NULL,
		pid            INTEGER NOT NULL,
		command        TEXT NOT NULL,
		slices         INTEGER NOT NULL DEFAULT 0,
		outcome        TEXT NOT NULL,
		exit_code      INTEGER NOT NULL DEFAULT 0,
		signal         TEXT NOT NULL DEFAULT '',
		error          TEXT NOT NULL DEFAULT '',
		user_time_ns   INTEGER NOT NULL DEFAULT 0,
		system_time_ns INTEGER NOT NULL DEFAULT 0,
		max_rss_kb     INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (batch_id, idx)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_batches_started_at ON batches(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_processes_outcome ON processes(outcome)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
