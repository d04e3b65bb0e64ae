package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/mcp/pkg/model"

	_ "modernc.org/sqlite"
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction, so stored
// timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// RecordBatch stores r and its processes in one transaction.
func (s *SQLiteStore) RecordBatch(ctx context.Context, r *model.BatchReport) error {
	s.logger.Debug("sql", "op", "insert", "table", "batches", "id", r.ID, "processes", len(r.Processes))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, source, quantum_ns, started_at, completed_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Source, int64(r.Quantum),
		r.StartedAt.UTC().Format(timeLayout), r.CompletedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert batch %s: %w", r.ID, err)
	}

	for _, p := range r.Processes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO processes (batch_id, idx, pid, command, slices, outcome, exit_code, signal, error, user_time_ns, system_time_ns, max_rss_kb)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, p.Index, p.PID, p.Command, p.Slices,
			string(p.Exit.Outcome), p.Exit.ExitCode, p.Exit.Signal, p.Exit.Error,
			int64(p.Exit.UserTime), int64(p.Exit.SystemTime), p.Exit.MaxRSSKB,
		)
		if err != nil {
			return fmt.Errorf("insert process %d: %w", p.Index, err)
		}
	}

	return tx.Commit()
}

// GetBatch returns the batch with the given id, or nil if none exists.
func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (*model.BatchReport, error) {
	s.logger.Debug("sql", "op", "select", "table", "batches", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, quantum_ns, started_at, completed_at FROM batches WHERE id = ?`, id)
	r, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if r.Processes, err = s.listProcesses(ctx, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListBatches returns up to limit batches, most recent first. A limit of zero
// or less returns every batch.
func (s *SQLiteStore) ListBatches(ctx context.Context, limit int) ([]*model.BatchReport, error) {
	s.logger.Debug("sql", "op", "list", "table", "batches", "limit", limit)

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, quantum_ns, started_at, completed_at FROM batches
		 ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	var batches []*model.BatchReport
	for rows.Next() {
		r, err := scanBatch(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		batches = append(batches, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Processes are loaded after the batch cursor is closed; the pool holds one connection.
	for _, r := range batches {
		if r.Processes, err = s.listProcesses(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return batches, nil
}

func (s *SQLiteStore) listProcesses(ctx context.Context, batchID string) ([]model.ProcessResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, pid, command, slices, outcome, exit_code, signal, error, user_time_ns, system_time_ns, max_rss_kb
		 FROM processes WHERE batch_id = ? ORDER BY idx`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	procs := []model.ProcessResult{}
	for rows.Next() {
		var p model.ProcessResult
		var outcome string
		var utime, stime int64
		if err := rows.Scan(&p.Index, &p.PID, &p.Command, &p.Slices, &outcome,
			&p.Exit.ExitCode, &p.Exit.Signal, &p.Exit.Error, &utime, &stime, &p.Exit.MaxRSSKB); err != nil {
			return nil, err
		}
		p.Exit.Outcome = model.Outcome(outcome)
		p.Exit.UserTime = time.Duration(utime)
		p.Exit.SystemTime = time.Duration(stime)
		procs = append(procs, p)
	}
	return procs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(sc scanner) (*model.BatchReport, error) {
	var r model.BatchReport
	var quantum int64
	var startedAt, completedAt string
	if err := sc.Scan(&r.ID, &r.Source, &quantum, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	r.Quantum = time.Duration(quantum)
	r.StartedAt, _ = time.Parse(timeLayout, startedAt)
	r.CompletedAt, _ = time.Parse(timeLayout, completedAt)
	return &r, nil
}
