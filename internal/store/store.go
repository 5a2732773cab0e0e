// Package store is the SQLite entity store the indexes are rebuilt from.
//
// It owns the CMS entities; indexes only ever hold projections of them.
// Each content type is exposed as an index.Source listing its live rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("store is closed")

// Store is a SQLite-backed entity store.
type Store struct {
	db   *sql.DB
	path string

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the store at path.
// If path is empty, creates an in-memory store for testing.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: the in-memory database lives on it, and a file
	// database has a single writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if path != "" {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Debug("store_opened", slog.String("path", dsn))
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS sites (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		name     TEXT NOT NULL,
		base_url TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS webpages (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id       INTEGER NOT NULL REFERENCES sites(id),
		title         TEXT NOT NULL DEFAULT '',
		url_segment   TEXT NOT NULL DEFAULT '',
		body_content  TEXT NOT NULL DEFAULT '',
		document_type TEXT NOT NULL DEFAULT '',
		publish_on    TEXT,
		is_deleted    INTEGER NOT NULL DEFAULT 0,
		created_on    TEXT NOT NULL,
		updated_on    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_webpages_live ON webpages(site_id, is_deleted);

	CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id     INTEGER NOT NULL REFERENCES sites(id),
		name        TEXT NOT NULL DEFAULT '',
		sku         TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price       REAL NOT NULL DEFAULT 0,
		is_deleted  INTEGER NOT NULL DEFAULT 0,
		created_on  TEXT NOT NULL,
		updated_on  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_live ON products(site_id, is_deleted);

	CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		email      TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name  TEXT NOT NULL DEFAULT '',
		is_active  INTEGER NOT NULL DEFAULT 1,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_on TEXT NOT NULL,
		updated_on TEXT NOT NULL
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the store. It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// read runs fn under the read lock unless the store is closed.
func (s *Store) read(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn()
}

// write runs fn under the write lock unless the store is closed.
func (s *Store) write(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return fn()
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// stamp fills created on first save and always bumps updated.
func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// upsert inserts a row when id is zero and replaces it otherwise, returning the row ID.
func upsert(ctx context.Context, db *sql.DB, insert, replace string, id int64, args ...any) (int64, error) {
	if id == 0 {
		res, err := db.ExecContext(ctx, insert, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	if _, err := db.ExecContext(ctx, replace, append([]any{id}, args...)...); err != nil {
		return 0, err
	}
	return id, nil
}

// softDelete flags a row as deleted.
func (s *Store) softDelete(ctx context.Context, table string, id int64) error {
	return s.write(func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE "+table+" SET is_deleted = 1, updated_on = ? WHERE id = ?",
			formatTime(time.Now()), id)
		if err != nil {
			return fmt.Errorf("failed to delete %s %d: %w", table, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
		}
		return nil
	})
}
