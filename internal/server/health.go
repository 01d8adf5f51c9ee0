package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/probsim/internal/storage"
)

// poolStats is implemented by checkers backed by a connection pool.
type poolStats interface {
	Stat() (total, idle int32)
}

// HealthMonitor periodically checks a remote storage backend and logs
// transitions between healthy and unhealthy. It never stops the application;
// the simulator keeps working from memory while storage is down.
type HealthMonitor struct {
	checker  storage.HealthChecker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	healthy bool

	stopOnce sync.Once
	done     chan struct{}
}

// NewHealthMonitor creates a HealthMonitor.
//
// Precondition: checker and logger must be non-nil; interval > 0; timeout > 0.
func NewHealthMonitor(checker storage.HealthChecker, interval, timeout time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		healthy:  true,
		done:     make(chan struct{}),
	}
}

// Healthy reports the result of the most recent check.
func (h *HealthMonitor) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.healthy
}

// Check runs one health check and records the result.
func (h *HealthMonitor) Check(ctx context.Context) error {
	err := h.checker.Health(ctx, h.timeout)

	h.mu.Lock()
	was := h.healthy
	h.healthy = err == nil
	h.mu.Unlock()

	switch {
	case err != nil && was:
		h.logger.Warn("storage unhealthy; changes are kept in memory", append(h.poolFields(), zap.Error(err))...)
	case err == nil && !was:
		h.logger.Info("storage healthy again", h.poolFields()...)
	}
	return err
}

func (h *HealthMonitor) poolFields() []zap.Field {
	ps, ok := h.checker.(poolStats)
	if !ok {
		return nil
	}
	total, idle := ps.Stat()
	return []zap.Field{zap.Int32("pool_total", total), zap.Int32("pool_idle", idle)}
}

// Start checks immediately and then once per interval until Stop.
func (h *HealthMonitor) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-h.done
		cancel()
	}()

	_ = h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = h.Check(ctx)
		case <-h.done:
			return nil
		}
	}
}

// Stop ends Start. Safe to call multiple times.
func (h *HealthMonitor) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
