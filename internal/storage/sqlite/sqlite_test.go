package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/storage"
	"github.com/cory-johannsen/probsim/internal/trial"
)

func openTestSlot(t *testing.T) *Slot {
	t.Helper()
	slot, err := Open(filepath.Join(t.TempDir(), "probsim.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = slot.Close() })
	return slot
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestGet_Missing(t *testing.T) {
	slot := openTestSlot(t)
	_, err := slot.Get(context.Background(), storage.DefaultKey)
	assert.ErrorIs(t, err, storage.ErrSlotEmpty)
}

func TestPut_Overwrites(t *testing.T) {
	slot := openTestSlot(t)
	ctx := context.Background()

	require.NoError(t, slot.Put(ctx, "k", []byte("one")))
	require.NoError(t, slot.Put(ctx, "k", []byte("two")))

	got, err := slot.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestPut_EmptyValue(t *testing.T) {
	slot := openTestSlot(t)
	ctx := context.Background()

	require.NoError(t, slot.Put(ctx, "k", nil))
	got, err := slot.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReopen_KeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probsim.sqlite")
	ctx := context.Background()

	slot, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, slot.Put(ctx, storage.SoundKey, []byte("false")))
	require.NoError(t, slot.Close())

	slot, err = Open(path)
	require.NoError(t, err)
	defer slot.Close()
	got, err := slot.Get(ctx, storage.SoundKey)
	require.NoError(t, err)
	assert.Equal(t, "false", string(got))
}

func TestHealth(t *testing.T) {
	slot := openTestSlot(t)
	assert.NoError(t, slot.Health(context.Background(), time.Second))
}

func TestStoreRoundTrip(t *testing.T) {
	slot := openTestSlot(t)
	ctx := context.Background()
	store := storage.NewStore(slot, storage.DefaultKey, zaptest.NewLogger(t))

	log := trial.NewLog(func() time.Time { return time.UnixMilli(1_700_000_000_000) })
	log.Append(distribution.Coin, distribution.Heads)
	log.AppendBatch(distribution.Dice, []string{"1", "6", "3"}, time.UnixMilli(1_700_000_005_000))
	require.NoError(t, store.SaveLog(ctx, log))

	restored := trial.NewLog(time.Now)
	require.NoError(t, store.LoadInto(ctx, restored))
	assert.Equal(t, log.Trials(), restored.Trials())
}

// Property: the last Put for a key is what Get returns.
func TestPropertyLastWriteWins(t *testing.T) {
	slot := openTestSlot(t)
	ctx := context.Background()
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "key")
		values := rapid.SliceOfN(rapid.SliceOf(rapid.Byte()), 1, 5).Draw(t, "values")
		for _, v := range values {
			if err := slot.Put(ctx, key, v); err != nil {
				t.Fatalf("put: %v", err)
			}
		}
		got, err := slot.Get(ctx, key)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		want := values[len(values)-1]
		if string(got) != string(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})
}
