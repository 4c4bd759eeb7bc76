// Package store opens the SQLite file shared by the journal and saved
// settings, and applies each feature's schema migrations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrInvalidMigrations is returned for a migration list that is not strictly
// ascending from version 1 or has a step without Up.
var ErrInvalidMigrations = errors.New("invalid migration list")

// Migration is one versioned schema step of a scope.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// Applied as statements: modernc.org/sqlite ignores DSN pragmas. The CLI and
// a running `serve` may share the file, so readers must not block the writer.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// SQLiteStore is an open database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex // serializes Migrate
}

// New opens or creates the database at path, creating its directory with
// user-only permissions.
func New(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: a second one to :memory: would see an empty database,
	// and SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, multierr.Append(fmt.Errorf("sqlite %q: %s: %w", path, p, err), db.Close())
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// DB returns the handle for repository queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Path is the file the store was opened from.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Tx runs fn in a transaction, committing when fn returns nil. A failed
// rollback is reported alongside fn's error.
func (s *SQLiteStore) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		return multierr.Append(err, tx.Rollback())
	}
	return tx.Commit()
}

// Migrate brings scope up to the last version in migrations. Each step runs
// in its own transaction together with its bookkeeping row, so a failed step
// leaves the scope at the previous version.
func (s *SQLiteStore) Migrate(ctx context.Context, scope string, migrations []Migration) error {
	if err := checkMigrations(migrations); err != nil {
		return fmt.Errorf("scope %s: %w", scope, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			scope       TEXT     NOT NULL,
			version     INTEGER  NOT NULL,
			description TEXT     NOT NULL,
			applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope, version)
		)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	current, err := s.schemaVersion(ctx, scope)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.apply(ctx, scope, m); err != nil {
			return fmt.Errorf("migration %s/%d (%s): %w", scope, m.Version, m.Description, err)
		}
	}
	return nil
}

// SchemaVersion reports the last applied migration of scope, 0 for none.
func (s *SQLiteStore) SchemaVersion(ctx context.Context, scope string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schemaVersion(ctx, scope)
}

func (s *SQLiteStore) schemaVersion(ctx context.Context, scope string) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM _migrations WHERE scope = ?`, scope,
	).Scan(&v)
	if err != nil {
		// No table yet means nothing was ever migrated.
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read schema version of %s: %w", scope, err)
	}
	return v, nil
}

func (s *SQLiteStore) apply(ctx context.Context, scope string, m Migration) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if err := m.Up(tx); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO _migrations (scope, version, description) VALUES (?, ?, ?)`,
			scope, m.Version, m.Description,
		)
		return err
	})
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func checkMigrations(migrations []Migration) error {
	prev := 0
	for _, m := range migrations {
		if m.Version <= prev {
			return fmt.Errorf("%w: version %d after %d", ErrInvalidMigrations, m.Version, prev)
		}
		if m.Up == nil {
			return fmt.Errorf("%w: version %d has no Up", ErrInvalidMigrations, m.Version)
		}
		prev = m.Version
	}
	return nil
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
