package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/storage"
	"github.com/cory-johannsen/probsim/internal/storage/memory"
	"github.com/cory-johannsen/probsim/internal/trial"
)

func sampleLog() *trial.Log {
	log := trial.NewLog(func() time.Time { return time.UnixMilli(5_000) })
	log.Append(distribution.Dice, "2")
	log.AppendBatch(distribution.Coin, []string{"Heads", "Tails"}, time.UnixMilli(9_000))
	return log
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	store := storage.NewStore(slot, storage.DefaultKey, zaptest.NewLogger(t))
	log := sampleLog()

	require.NoError(t, store.SaveLog(ctx, log))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, log.Trials(), got)

	raw, err := slot.Get(ctx, "simulations")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"coin"`)
}

func TestStore_SaveIdempotent(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	store := storage.NewStore(slot, storage.DefaultKey, zaptest.NewLogger(t))
	log := sampleLog()

	require.NoError(t, store.SaveLog(ctx, log))
	first, err := slot.Get(ctx, storage.DefaultKey)
	require.NoError(t, err)
	require.NoError(t, store.SaveLog(ctx, log))
	second, err := slot.Get(ctx, storage.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStore_LoadMissing(t *testing.T) {
	store := storage.NewStore(memory.New(), storage.DefaultKey, zaptest.NewLogger(t))
	got, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_LoadCorruptYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	require.NoError(t, slot.Put(ctx, storage.DefaultKey, []byte(`[{"type":"dice"`)))

	core, logs := observer.New(zap.DebugLevel)
	store := storage.NewStore(slot, storage.DefaultKey, zap.New(core))

	log := sampleLog()
	err := store.LoadInto(ctx, log)
	assert.True(t, errors.Is(err, storage.ErrCorruptSnapshot))
	assert.Zero(t, log.Size())
	assert.Equal(t, 1, logs.FilterMessage("discarding corrupt snapshot; starting empty").Len())
}

func TestStore_SaveUnavailableKeepsMemory(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	slot.FailWrites(errors.New("quota exceeded"))

	core, logs := observer.New(zap.DebugLevel)
	store := storage.NewStore(slot, storage.DefaultKey, zap.New(core))
	log := sampleLog()

	err := store.SaveLog(ctx, log)
	assert.True(t, errors.Is(err, storage.ErrStorageUnavailable))
	assert.Equal(t, 3, log.Size())
	assert.Equal(t, 1, logs.FilterMessage("saving snapshot; keeping in-memory state").Len())

	slot.FailWrites(nil)
	require.NoError(t, store.SaveLog(ctx, log))
	assert.Equal(t, 1, slot.Writes())
}

func TestStore_SaveRejectsOutOfDomainKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	core, logs := observer.New(zap.DebugLevel)
	store := storage.NewStore(slot, storage.DefaultKey, zap.New(core))

	log := trial.NewLog(func() time.Time { return time.UnixMilli(1_000) })
	for range 5 {
		log.Append(distribution.Dice, "3")
	}
	require.NoError(t, store.SaveLog(ctx, log))
	writes := slot.Writes()

	log.Append(distribution.Dice, "7")
	err := store.SaveLog(ctx, log)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrCorruptSnapshot))
	assert.Equal(t, writes, slot.Writes(), "nothing written for an unreadable snapshot")
	assert.Equal(t, 1, logs.FilterMessage("refusing to save unreadable snapshot; keeping previous").Len())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	for _, tr := range got {
		assert.Equal(t, "3", tr.Result)
	}
}

type brokenSlot struct{}

func (brokenSlot) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (brokenSlot) Put(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestStore_LoadUnreadable(t *testing.T) {
	store := storage.NewStore(brokenSlot{}, storage.DefaultKey, zaptest.NewLogger(t))
	got, err := store.Load(context.Background())
	assert.Empty(t, got)
	assert.True(t, errors.Is(err, storage.ErrStorageUnavailable))
}

func TestStore_Key(t *testing.T) {
	slot := memory.New()
	store := storage.NewStore(slot, "custom", zaptest.NewLogger(t))
	assert.Equal(t, "custom", store.Key())
	assert.Same(t, slot, store.Slot())
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	prefs := storage.NewPreferences(slot, zaptest.NewLogger(t))

	assert.True(t, prefs.SoundEnabled(ctx), "default is enabled")

	require.NoError(t, prefs.SetSoundEnabled(ctx, false))
	assert.False(t, prefs.SoundEnabled(ctx))
	raw, err := slot.Get(ctx, storage.SoundKey)
	require.NoError(t, err)
	assert.Equal(t, "false", string(raw))

	require.NoError(t, prefs.SetSoundEnabled(ctx, true))
	assert.True(t, prefs.SoundEnabled(ctx))

	for _, v := range []string{"loud", "1", "T", "TRUE", "True", " true", ""} {
		require.NoError(t, slot.Put(ctx, storage.SoundKey, []byte(v)))
		assert.False(t, prefs.SoundEnabled(ctx), "stored value %q", v)
	}

	broken := storage.NewPreferences(brokenSlot{}, zaptest.NewLogger(t))
	assert.True(t, broken.SoundEnabled(ctx))
	assert.Error(t, broken.SetSoundEnabled(ctx, true))
}
