// Package memory provides an in-process storage.Slot.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cory-johannsen/probsim/internal/storage"
)

// Slot keeps values in a map. It is safe for concurrent use.
type Slot struct {
	mu       sync.Mutex
	values   map[string][]byte
	writeErr error
	writes   int
}

// New returns an empty Slot.
func New() *Slot {
	return &Slot{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, storage.ErrSlotEmpty
	}
	return slices.Clone(v), nil
}

// Put stores a copy of value under key, or fails with the error set by FailWrites.
func (s *Slot) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return fmt.Errorf("writing %q: %w", key, s.writeErr)
	}
	s.values[key] = slices.Clone(value)
	s.writes++
	return nil
}

// FailWrites makes every subsequent Put return err; nil restores writes.
func (s *Slot) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Writes returns the number of successful Put calls.
func (s *Slot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
