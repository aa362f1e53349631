// Package cache keeps fetched provider messages in a local SQLite database so
// that reopening a large inbox does not refetch every message.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/bassamadnan/mailsort/inbox"
)

// Store is a SQLite backed table of raw messages keyed by namespace and id.
// The namespace separates accounts and providers sharing one file.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// Get returns the cached message, or false when there is none.
func (s *Store) Get(ctx context.Context, namespace, id string) (*inbox.RawMessage, bool, error) {
	var data string
	err := s.db.GetContext(ctx, &data,
		"SELECT raw FROM messages WHERE namespace = ? AND id = ?", namespace, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached message %s: %w", id, err)
	}

	raw := &inbox.RawMessage{}
	if err := json.Unmarshal([]byte(data), raw); err != nil {
		return nil, false, fmt.Errorf("decoding cached message %s: %w", id, err)
	}
	return raw, true, nil
}

// Put stores raw under its id, replacing any earlier copy.
func (s *Store) Put(ctx context.Context, namespace string, raw *inbox.RawMessage) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding message %s: %w", raw.ID, err)
	}

	const query = `
		INSERT OR REPLACE INTO messages (namespace, id, raw, fetched_at)
		VALUES (?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, namespace, raw.ID, string(data), time.Now().Unix()); err != nil {
		return fmt.Errorf("caching message %s: %w", raw.ID, err)
	}
	return nil
}

// Count returns the number of messages cached under namespace.
func (s *Store) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM messages WHERE namespace = ?", namespace); err != nil {
		return 0, fmt.Errorf("counting cached messages: %w", err)
	}
	return n, nil
}
