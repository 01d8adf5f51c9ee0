package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/probsim/internal/trial"
)

// Store saves and restores the trial log through a Slot. Failures are logged
// and recovered here; the in-memory log always stays authoritative.
type Store struct {
	slot   Slot
	key    string
	logger *zap.Logger
}

// NewStore creates a Store writing the snapshot under key.
//
// Precondition: slot and logger must be non-nil; key must be non-empty.
func NewStore(slot Slot, key string, logger *zap.Logger) *Store {
	return &Store{slot: slot, key: key, logger: logger}
}

// Key returns the slot key the snapshot is stored under.
func (s *Store) Key() string { return s.key }

// Slot returns the underlying slot.
func (s *Store) Slot() Slot { return s.slot }

// Save writes the full ordered trial sequence to the slot.
//
// Postcondition: on success the slot holds Encode(trials). A trial Decode
// would reject returns an error wrapping ErrCorruptSnapshot and leaves the
// previous snapshot in place. A slot failure is logged and returns an error
// wrapping ErrStorageUnavailable; nothing else changes.
func (s *Store) Save(ctx context.Context, trials []trial.Trial) error {
	data, err := Encode(trials)
	if err != nil {
		s.logger.Error("refusing to save unreadable snapshot; keeping previous",
			zap.String("key", s.key),
			zap.Int("trials", len(trials)),
			zap.Error(err),
		)
		return err
	}
	if err := s.slot.Put(ctx, s.key, data); err != nil {
		s.logger.Error("saving snapshot; keeping in-memory state",
			zap.String("key", s.key),
			zap.Int("trials", len(trials)),
			zap.Error(err),
		)
		if errors.Is(err, ErrStorageUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	s.logger.Debug("snapshot saved", zap.String("key", s.key), zap.Int("trials", len(trials)))
	return nil
}

// SaveLog snapshots the current contents of log.
func (s *Store) SaveLog(ctx context.Context, log *trial.Log) error {
	return s.Save(ctx, log.Trials())
}

// Load reads the snapshot from the slot.
//
// Postcondition: a missing slot yields (nil, nil). A corrupt snapshot or an
// unreadable slot yields (nil, err) after logging; callers start from an
// empty log in every non-success case.
func (s *Store) Load(ctx context.Context) ([]trial.Trial, error) {
	data, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, ErrSlotEmpty) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("reading snapshot; starting empty", zap.String("key", s.key), zap.Error(err))
		if errors.Is(err, ErrStorageUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	trials, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding corrupt snapshot; starting empty",
			zap.String("key", s.key),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return nil, err
	}
	s.logger.Debug("snapshot loaded", zap.String("key", s.key), zap.Int("trials", len(trials)))
	return trials, nil
}

// LoadInto replaces the contents of log with the stored snapshot, or clears
// it when nothing valid is stored.
func (s *Store) LoadInto(ctx context.Context, log *trial.Log) error {
	trials, err := s.Load(ctx)
	log.Replace(trials)
	return err
}
