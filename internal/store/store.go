// Package store provides the single SQLite connection every other
// component mutates through. All multi-row mutations happen inside
// WithTx, which wraps begin/commit/rollback and refuses to start a new
// transaction once the process has been asked to shut down.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
)

// Store wraps the single SQLite connection used by a command invocation.
type Store struct {
	db   *sql.DB
	path string
}

// Config controls how the database file is opened.
type Config struct {
	Path        string
	WALMode     bool
	BusyTimeout int // milliseconds, 0 -> 5000
}

// DefaultConfig returns the defaults used when a caller doesn't override them.
func DefaultConfig(path string) Config {
	return Config{Path: path, WALMode: true, BusyTimeout: 5000}
}

// Open creates the data directory if needed, opens the SQLite file in WAL
// mode, and brings the schema up to date.
func Open(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	timeout := cfg.BusyTimeout
	if timeout == 0 {
		timeout = 5000
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if cfg.WALMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			L_warn("store: failed to enable WAL mode", "error", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", timeout)); err != nil {
		L_warn("store: failed to set busy_timeout", "error", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		L_warn("store: failed to enable foreign keys", "error", err)
	}

	s := &Store{db: db, path: cfg.Path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	L_info("store: opened", "path", cfg.Path)
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw connection for read-only queries issued directly by
// components that don't need a transaction (list/show operations).
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a single transaction, committing on a nil return
// and rolling back otherwise. Every mutating operation in every component
// above the store goes through this, so the entity change and the events
// describing it land atomically or not at all.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	if IsShuttingDown() {
		return fmt.Errorf("store: refusing to start transaction, shutting down")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			L_warn("store: rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
