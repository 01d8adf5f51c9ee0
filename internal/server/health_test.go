package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeChecker struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeChecker) Health(ctx context.Context, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeChecker) set(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeChecker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestHealthMonitor_LogsTransitions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	checker := &fakeChecker{}
	hm := NewHealthMonitor(checker, time.Hour, time.Second, zap.New(core))
	ctx := context.Background()

	assert.NoError(t, hm.Check(ctx))
	assert.True(t, hm.Healthy())
	assert.Zero(t, logs.Len())

	checker.set(errors.New("connection refused"))
	assert.Error(t, hm.Check(ctx))
	assert.Error(t, hm.Check(ctx))
	assert.False(t, hm.Healthy())
	assert.Equal(t, 1, logs.FilterMessage("storage unhealthy; changes are kept in memory").Len(),
		"only the transition is logged")

	checker.set(nil)
	assert.NoError(t, hm.Check(ctx))
	assert.True(t, hm.Healthy())
	assert.Equal(t, 1, logs.FilterMessage("storage healthy again").Len())
}

func TestHealthMonitor_StartStop(t *testing.T) {
	core, _ := observer.New(zap.InfoLevel)
	checker := &fakeChecker{}
	hm := NewHealthMonitor(checker, 5*time.Millisecond, time.Second, zap.New(core))

	done := make(chan error, 1)
	go func() { done <- hm.Start() }()

	deadline := time.After(2 * time.Second)
	for checker.count() < 3 {
		select {
		case <-deadline:
			t.Fatal("health checks did not run")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	hm.Stop()
	hm.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

type pooledChecker struct {
	fakeChecker
}

func (p *pooledChecker) Stat() (total, idle int32) { return 4, 3 }

func TestHealthMonitor_LogsPoolOccupancy(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	checker := &pooledChecker{}
	hm := NewHealthMonitor(checker, time.Hour, time.Second, zap.New(core))
	ctx := context.Background()

	checker.set(errors.New("connection refused"))
	assert.Error(t, hm.Check(ctx))
	entries := logs.FilterMessage("storage unhealthy; changes are kept in memory").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, int32(4), fields["pool_total"])
		assert.Equal(t, int32(3), fields["pool_idle"])
		assert.Equal(t, "connection refused", fields["error"])
	}

	checker.set(nil)
	assert.NoError(t, hm.Check(ctx))
	entries = logs.FilterMessage("storage healthy again").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, int32(4), entries[0].ContextMap()["pool_total"])
	}
}

func TestHealthMonitor_NoPoolFieldsForPlainChecker(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	checker := &fakeChecker{err: errors.New("down")}
	hm := NewHealthMonitor(checker, time.Hour, time.Second, zap.New(core))

	assert.Error(t, hm.Check(context.Background()))
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.NotContains(t, entries[0].ContextMap(), "pool_total")
	}
}
