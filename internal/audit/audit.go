// Package audit persists a trail of every approve, reject and delete action
// keelbot relays to Keel. It uses modernc.org/sqlite (pure Go, no CGO) with
// WAL mode. Writes are best effort: callers log failures and proceed.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const busyTimeoutMillis = 5000

const schema = `
CREATE TABLE IF NOT EXISTS actions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ts          TEXT    NOT NULL,
	action      TEXT    NOT NULL,
	approval_id TEXT    NOT NULL,
	identifier  TEXT    NOT NULL,
	voter       TEXT    NOT NULL,
	source      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_actions_ts ON actions(ts);
`

// Entry is one recorded action.
type Entry struct {
	ID         int64
	Time       time.Time
	Action     string
	ApprovalID string
	Identifier string
	Voter      string
	Source     string
}

// Store is the sqlite-backed audit trail.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the audit database at path and migrates the schema.
//
// The database uses WAL mode, a 5 s busy timeout, and a single connection
// (SQLite serialises writes).
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("audit: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMillis)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: migrate schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Record inserts one action.
func (s *Store) Record(ctx context.Context, action, approvalID, identifier, voter, source string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (ts, action, approval_id, identifier, voter, source)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.now().UTC().Format(time.RFC3339), action, approvalID, identifier, voter, source,
	)
	if err != nil {
		return fmt.Errorf("audit: record %s action: %w", action, err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, action, approval_id, identifier, voter, source
		 FROM actions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent actions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Action, &e.ApprovalID, &e.Identifier, &e.Voter, &e.Source); err != nil {
			return nil, fmt.Errorf("audit: scan action row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			e.Time = parsed
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate action rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
