/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guestbook

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	message    TEXT NOT NULL,
	color      TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS notes_created_at ON notes (created_at DESC, id DESC);`

// SQLiteBackend keeps notes in a local SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the notes database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("guestbook database path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Add(ctx context.Context, e Entry) (Entry, error) {
	e.CreatedAt = time.UnixMilli(e.CreatedAt.UnixMilli()).UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, name, message, color, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Message, e.Color, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Entry{}, err
	}

	return e, nil
}

func (s *SQLiteBackend) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, message, color, created_at FROM notes ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			millis int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Message, &e.Color, &millis); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(millis).UTC()
		out = append(out, e)
	}

	return out, rows.Err()
}

func (s *SQLiteBackend) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}
