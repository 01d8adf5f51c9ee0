// Package file provides a storage.Slot keeping one file per key in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cory-johannsen/probsim/internal/storage"
)

// Slot stores each key as <dir>/<key>.
type Slot struct {
	dir string
}

// Open returns a Slot rooted at dir, creating the directory if needed.
//
// Precondition: dir must be non-empty.
// Postcondition: Returns a usable Slot or an error wrapping storage.ErrStorageUnavailable.
func Open(dir string) (*Slot, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: storage directory is required", storage.ErrStorageUnavailable)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", storage.ErrStorageUnavailable, dir, err)
	}
	return &Slot{dir: filepath.Clean(dir)}, nil
}

func (s *Slot) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get reads the file for key.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", storage.ErrStorageUnavailable, p, err)
	}
	return data, nil
}

// Put replaces the file for key atomically via a temporary file and rename.
func (s *Slot) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %w", storage.ErrStorageUnavailable, p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", storage.ErrStorageUnavailable, p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("%w: replacing %s: %w", storage.ErrStorageUnavailable, p, err)
	}
	return nil
}
