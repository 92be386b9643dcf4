package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// kvSchema creates the key-value table. Kept inline rather than in a
// migration file: the table is append-only in shape and shared by every
// container that persists state.
const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`

// KV is a durable key-value store backed by SQLite.
//
// It implements the persistence collaborator contract consumed by the
// identity resolver and the preference/dashboard containers: Get reports
// presence explicitly, Set upserts, and neither ever coerces a missing key
// into an empty value.
//
// Thread Safety: safe for concurrent use; the underlying pool serialises
// writers.
type KV struct {
	db *DB
}

// NewKV creates a key-value store on the given database, creating the
// backing table if it does not exist.
func NewKV(ctx context.Context, db *DB) (*KV, error) {
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("creating kv table: %w", err)
	}
	return &KV{db: db}, nil
}

// Get retrieves the value stored under key. The boolean reports whether the
// key exists; a missing key is not an error.
func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ?", key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *KV) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("kv: key cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is a no-op.
func (s *KV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}
