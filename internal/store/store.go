// Package store persists extracted doc entries in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phobologic/nodedocs/internal/model"
)

// ErrNotFound is returned when an entry id is not in the database.
var ErrNotFound = errors.New("entry not found")

// Store is the SQLite data access layer for the entry database.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS entries (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  kind        TEXT NOT NULL,
  memberof    TEXT NOT NULL,
  instance    BOOLEAN NOT NULL DEFAULT FALSE,
  file        TEXT NOT NULL,
  line        INTEGER NOT NULL,
  data        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_memberof ON entries(memberof);
CREATE INDEX IF NOT EXISTS idx_entries_file ON entries(file);

CREATE TABLE IF NOT EXISTS meta (
  key         TEXT PRIMARY KEY,
  value       TEXT NOT NULL
);
`

const extractedAtKey = "extracted_at"

// SaveEntries replaces the database contents with store in one transaction.
func (s *Store) SaveEntries(ctx context.Context, store model.EntryStore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (id, name, kind, memberof, instance, file, line, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range store.Sorted() {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Name, string(e.Kind), e.MemberOf, e.Instance,
			e.Source.File, e.Source.Line, string(data)); err != nil {
			return fmt.Errorf("insert %s: %w", e.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		extractedAtKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("update meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadEntries returns every stored entry.
func (s *Store) LoadEntries(ctx context.Context) (model.EntryStore, error) {
	return s.query(ctx, `SELECT data FROM entries ORDER BY id`)
}

// EntriesByOwner returns the entries whose owner is memberof; "" selects
// global entries.
func (s *Store) EntriesByOwner(ctx context.Context, memberof string) (model.EntryStore, error) {
	return s.query(ctx, `SELECT data FROM entries WHERE memberof = ? ORDER BY id`, memberof)
}

// Entry returns the entry stored under id, or ErrNotFound.
func (s *Store) Entry(ctx context.Context, id string) (model.DocEntry, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM entries WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DocEntry{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.DocEntry{}, fmt.Errorf("query %s: %w", id, err)
	}

	var e model.DocEntry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return model.DocEntry{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return e, nil
}

// ExtractedAt returns when SaveEntries last ran. The zero time means never.
func (s *Store) ExtractedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, extractedAtKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query meta: %w", err)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", extractedAtKey, err)
	}
	return t, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) (model.EntryStore, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	out := model.EntryStore{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		var e model.DocEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		out.Put(e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}
