package storage

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
)

// Preferences stores presentation settings that live beside the snapshot.
// The core treats them as opaque.
type Preferences struct {
	slot   Slot
	logger *zap.Logger
}

// NewPreferences creates Preferences backed by slot.
func NewPreferences(slot Slot, logger *zap.Logger) *Preferences {
	return &Preferences{slot: slot, logger: logger}
}

// SoundEnabled returns the stored sound preference. Only the literal "true"
// enables sound once a value is stored; an empty or unreadable slot defaults
// to true.
func (p *Preferences) SoundEnabled(ctx context.Context) bool {
	data, err := p.slot.Get(ctx, SoundKey)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			p.logger.Warn("reading sound preference", zap.Error(err))
		}
		return true
	}
	switch string(data) {
	case "true":
		return true
	case "false":
		return false
	}
	p.logger.Warn("malformed sound preference; treating as off", zap.ByteString("value", data))
	return false
}

// SetSoundEnabled stores the sound preference as "true" or "false".
func (p *Preferences) SetSoundEnabled(ctx context.Context, enabled bool) error {
	if err := p.slot.Put(ctx, SoundKey, []byte(strconv.FormatBool(enabled))); err != nil {
		p.logger.Error("saving sound preference", zap.Bool("enabled", enabled), zap.Error(err))
		return err
	}
	return nil
}
