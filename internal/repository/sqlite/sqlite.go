// Package sqlite implements repository.KeyValueStore on an embedded SQLite file.
//
// WHY SQLITE FOR A CLIENT?
// The session has to survive between CLI invocations. A single-file embedded
// database gives us that with atomic writes and no server to run.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, so the CLI cross-compiles
// for every platform Go supports.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/portfolio/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

var _ repository.KeyValueStore = (*Store)(nil)

// Store wraps a sql.DB connection pool holding the kv table.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/portfolio.db" → file-based, survives restarts
//   - ":memory:"          → in-memory, used by tests
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ONE CONNECTION:
	// Every ":memory:" connection is its own empty database, and a CLI never
	// needs parallel writers anyway. Pinning the pool to one connection keeps
	// tests and production behaving the same.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets a second process (e.g. `portfolio whoami` while a login is
	// waiting for its callback) read while the first one writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	s := &Store{conn: conn}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the connection pool. Always defer it right after New.
func (s *Store) Close() error {
	return s.conn.Close()
}

// migrate creates the kv table. CREATE TABLE IF NOT EXISTS is idempotent, so
// running it on every start is safe.
func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
//
// sql.ErrNoRows is not a failure here: a missing key is the normal "logged
// out" state, so it maps to found=false.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key. ON CONFLICT keeps the row (and its rowid) and only touches
// value and updated_at.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: deleting %q: %w", key, err)
	}
	return nil
}
