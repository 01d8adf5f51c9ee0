package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/probsim/internal/storage"
)

// Slot stores keyed values in the kv_slots table.
type Slot struct {
	db *pgxpool.Pool
}

// NewSlot creates a Slot backed by the given pool.
//
// Precondition: db must be a valid, open connection pool and the kv_slots
// migration must have been applied.
func NewSlot(db *pgxpool.Pool) *Slot {
	return &Slot{db: db}
}

// Get returns the value stored under key.
//
// Postcondition: Returns storage.ErrSlotEmpty when no row exists.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM kv_slots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: selecting slot %q: %w", storage.ErrStorageUnavailable, key, err)
	}
	return value, nil
}

// Put upserts value under key.
func (s *Slot) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO kv_slots (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%w: upserting slot %q: %w", storage.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Health checks that the database is reachable within the given timeout.
func (s *Slot) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.Ping(ctx)
}

// Stat reports connection pool occupancy.
func (s *Slot) Stat() (total, idle int32) {
	st := s.db.Stat()
	return st.TotalConns(), st.IdleConns()
}

var (
	_ storage.Slot          = (*Slot)(nil)
	_ storage.HealthChecker = (*Slot)(nil)
)
