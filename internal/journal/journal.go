// Package journal keeps a local history of DNS workflows: which interface
// was changed, to what, and whether it worked.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/dnsswitch/internal/store"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one finished workflow.
type Entry struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Interface  string    `json:"interface"`
	Servers    []string  `json:"servers,omitempty"`
	DohEnabled bool      `json:"doh_enabled"`
	Template   string    `json:"template,omitempty"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall time the workflow took.
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Recorder accepts finished entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// ListOptions filters and pages List.
type ListOptions struct {
	Limit     int    // Max results (default 50, max 1000).
	Offset    int    // Number of results to skip.
	Interface string // Only entries for this interface when set.
}

func normalizeListOptions(opts ListOptions) ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Limit > 1000 {
		opts.Limit = 1000
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}

// Compile-time interface guard.
var _ Recorder = (*Repository)(nil)

// Repository stores entries in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository runs the journal migrations and returns a repository.
func NewRepository(ctx context.Context, s *store.SQLiteStore) (*Repository, error) {
	if err := s.Migrate(ctx, "journal", migrations); err != nil {
		return nil, fmt.Errorf("journal migrations: %w", err)
	}
	return &Repository{db: s.DB()}, nil
}

// Record inserts e.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO journal_entries
			(id, operation, interface, servers, doh_enabled, template, success, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Operation, e.Interface, strings.Join(e.Servers, ","), e.DohEnabled, e.Template,
		e.Success, e.Message, e.StartedAt.UTC(), e.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record journal entry %s: %w", e.ID, err)
	}
	return nil
}

// Get returns the entry with id.
func (r *Repository) Get(ctx context.Context, id string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, selectEntries+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get journal entry %s: %w", id, err)
	}
	return e, nil
}

// List returns entries newest first.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	opts = normalizeListOptions(opts)

	query := selectEntries
	var args []any
	if opts.Interface != "" {
		query += ` WHERE interface = ?`
		args = append(args, opts.Interface)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

const selectEntries = `
	SELECT id, operation, interface, servers, doh_enabled, template, success, message, started_at, finished_at
	FROM journal_entries`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var servers string
	if err := s.Scan(&e.ID, &e.Operation, &e.Interface, &servers, &e.DohEnabled, &e.Template,
		&e.Success, &e.Message, &e.StartedAt, &e.FinishedAt); err != nil {
		return nil, err
	}
	if servers != "" {
		e.Servers = strings.Split(servers, ",")
	}
	return &e, nil
}

var migrations = []store.Migration{
	{
		Version:     1,
		Description: "create journal_entries table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE journal_entries (
					id          TEXT PRIMARY KEY,
					operation   TEXT NOT NULL,
					interface   TEXT NOT NULL,
					servers     TEXT NOT NULL DEFAULT '',
					doh_enabled INTEGER NOT NULL DEFAULT 0,
					template    TEXT NOT NULL DEFAULT '',
					success     INTEGER NOT NULL,
					message     TEXT NOT NULL DEFAULT '',
					started_at  DATETIME NOT NULL,
					finished_at DATETIME NOT NULL
				)`)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`CREATE INDEX idx_journal_interface ON journal_entries (interface, started_at)`)
			return err
		},
	},
}
