// Package store persists notes in SQLite with an FTS5 full-text index.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - no schema, or a legacy single-table FTS database
// 1 - notes table with external-content FTS index
const currentSchemaVersion = 1

var (
	ErrEmptyText = errors.New("store: note text is required")
	ErrNotFound  = errors.New("store: note not found")
)

// Store is the note collection. Every call acquires its own connection
// from the pool and releases it before returning.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and brings the
// schema up to date. Safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("store: pragma %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("store: get user_version: %w", err)
	}

	legacy := false
	if version < 1 {
		var err error
		if legacy, err = detachLegacyTable(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}

	if legacy {
		if err := importLegacyNotes(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("store: set user_version: %w", err)
	}
	return nil
}

// detachLegacyTable renames a pre-v1 standalone "memory" FTS table out of
// the way so the v1 schema can be created. Returns true when one was found.
func detachLegacyTable(db *sql.DB) (bool, error) {
	var memory, notes int
	err := db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'memory'),
			(SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'notes')
	`).Scan(&memory, &notes)
	if err != nil {
		return false, fmt.Errorf("store: inspect legacy schema: %w", err)
	}
	if memory == 0 || notes > 0 {
		return false, nil
	}
	if _, err := db.Exec(`ALTER TABLE memory RENAME TO memory_legacy`); err != nil {
		return false, fmt.Errorf("store: rename legacy table: %w", err)
	}
	return true, nil
}

// importLegacyNotes copies rows from the legacy table, keeping their rowids
// as note ids, then drops it.
func importLegacyNotes(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("store: import legacy notes: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO notes (id, text, tags, intent, timestamp)
		SELECT rowid, text,
		       COALESCE(NULLIF(tags, ''), 'general'),
		       COALESCE(NULLIF(intent, ''), 'fact'),
		       COALESCE(timestamp, '')
		FROM memory_legacy
		WHERE text IS NOT NULL AND text <> ''
	`)
	if err != nil {
		return fmt.Errorf("store: import legacy notes: %w", err)
	}
	if _, err := tx.Exec(`DROP TABLE memory_legacy`); err != nil {
		return fmt.Errorf("store: drop legacy table: %w", err)
	}
	return tx.Commit()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
