// Package storage persists the trial log as a single JSON snapshot in a named
// key-value slot. Backends live in the subpackages.
package storage

import (
	"context"
	"errors"
	"time"
)

// DefaultKey is the slot holding the trial log snapshot.
const DefaultKey = "simulations"

// SoundKey is the slot holding the sound preference.
const SoundKey = "soundEnabled"

// ErrSlotEmpty is returned by Slot.Get when nothing has been stored under the key.
var ErrSlotEmpty = errors.New("slot empty")

// ErrCorruptSnapshot is returned when stored data is unreadable or structurally invalid.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// ErrStorageUnavailable is returned when the durable slot cannot be read or written.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Slot is a durable key-value cell.
type Slot interface {
	// Get returns the bytes stored under key, or ErrSlotEmpty.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the bytes stored under key.
	Put(ctx context.Context, key string, value []byte) error
}

// HealthChecker is implemented by slots backed by a remote service.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}
