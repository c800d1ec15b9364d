package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS recording_sessions (
	id          TEXT PRIMARY KEY,
	page_url    TEXT NOT NULL DEFAULT '',
	output_dir  TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMP NOT NULL,
	stopped_at  TIMESTAMP,
	event_count INTEGER NOT NULL DEFAULT 0,
	file_count  INTEGER NOT NULL DEFAULT 0
);
`

// SessionIndex records recording session metadata in SQLite. Event
// payloads never land here; they go to chunk files.
type SessionIndex struct {
	db *sql.DB
}

// SessionRecord is one row of the index.
type SessionRecord struct {
	ID        string
	PageURL   string
	OutputDir string
	StartedAt time.Time
	StoppedAt *time.Time
	Events    int
	Files     int
}

// OpenSessionIndex opens (or creates) the index database at path.
func OpenSessionIndex(path string) (*SessionIndex, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite does not tolerate concurrent writers; serialize everything
	// through one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SessionIndex{db: db}, nil
}

// Begin inserts a new session row and returns its id.
func (ix *SessionIndex) Begin(ctx context.Context, pageURL, outputDir string) (string, error) {
	id := uuid.NewString()
	_, err := ix.db.ExecContext(ctx,
		`INSERT INTO recording_sessions (id, page_url, output_dir, started_at) VALUES (?, ?, ?, ?)`,
		id, pageURL, outputDir, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// Finish stamps a session as stopped with its final counters.
func (ix *SessionIndex) Finish(ctx context.Context, id string, events, files int) error {
	res, err := ix.db.ExecContext(ctx,
		`UPDATE recording_sessions SET stopped_at = ?, event_count = ?, file_count = ? WHERE id = ?`,
		time.Now().UTC(), events, files, id)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("unknown session %s", id)
	}
	return err
}

// List returns all sessions, most recent first.
func (ix *SessionIndex) List(ctx context.Context) ([]SessionRecord, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT id, page_url, output_dir, started_at, stopped_at, event_count, file_count
		 FROM recording_sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var stopped sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.PageURL, &rec.OutputDir, &rec.StartedAt, &stopped, &rec.Events, &rec.Files); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if stopped.Valid {
			t := stopped.Time
			rec.StoppedAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (ix *SessionIndex) Close() error {
	return ix.db.Close()
}
