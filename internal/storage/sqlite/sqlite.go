// Package sqlite provides a storage.Slot backed by a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/probsim/internal/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS kv_slots (
	key        TEXT    PRIMARY KEY,
	value      BLOB    NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Slot stores keyed values in the kv_slots table of a SQLite file.
type Slot struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens path, creating the database and schema if needed.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a usable Slot or an error wrapping storage.ErrStorageUnavailable.
func Open(path string) (*Slot, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", storage.ErrStorageUnavailable)
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", storage.ErrStorageUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", storage.ErrStorageUnavailable, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", storage.ErrStorageUnavailable, err)
	}
	return &Slot{db: db, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Slot) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value stored under key, or storage.ErrSlotEmpty.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get slot %q: %w", storage.ErrStorageUnavailable, key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Put upserts value under key.
func (s *Slot) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: put slot %q: %w", storage.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Health pings the database within timeout.
func (s *Slot) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

var (
	_ storage.Slot          = (*Slot)(nil)
	_ storage.HealthChecker = (*Slot)(nil)
)
