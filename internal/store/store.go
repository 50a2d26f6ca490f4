package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Decision is one applied action.
type Decision struct {
	MessageID string    `json:"messageId"`
	Action    string    `json:"action"`
	BatchID   string    `json:"batchId,omitempty"`
	AppliedAt time.Time `json:"appliedAt"`
}

// Store is a SQLite-backed decision history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL,
			action TEXT NOT NULL,
			applied_at INTEGER NOT NULL,
			batch_id TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_decisions_applied_at ON decisions(applied_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &Store{db: db}, nil
}

// Record stores one decision. A zero AppliedAt is set to now. Timestamps are
// stored as unix nanoseconds so rows order by time.
func (s *Store) Record(ctx context.Context, d Decision) error {
	if d.AppliedAt.IsZero() {
		d.AppliedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (message_id, action, applied_at, batch_id)
		VALUES (?, ?, ?, ?)
	`, d.MessageID, d.Action, d.AppliedAt.UnixNano(), d.BatchID)
	if err != nil {
		return fmt.Errorf("failed to record decision for %s: %w", d.MessageID, err)
	}
	return nil
}

// Recent returns up to limit decisions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, action, applied_at, batch_id
		FROM decisions
		ORDER BY applied_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var appliedAt int64
		if err := rows.Scan(&d.MessageID, &d.Action, &appliedAt, &d.BatchID); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.AppliedAt = time.Unix(0, appliedAt).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
