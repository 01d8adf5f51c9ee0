package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/probsim/internal/config"
	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/observability"
	"github.com/cory-johannsen/probsim/internal/simulator"
	"github.com/cory-johannsen/probsim/internal/storage"
	"github.com/cory-johannsen/probsim/internal/storage/file"
	"github.com/cory-johannsen/probsim/internal/storage/memory"
	"github.com/cory-johannsen/probsim/internal/storage/postgres"
	"github.com/cory-johannsen/probsim/internal/storage/sqlite"
)

// session is the state shared by every subcommand that touches the log.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	slot   storage.Slot
	sim    *simulator.Simulator
	closer func()
}

func (s *session) Close() {
	if s.sim != nil {
		s.sim.Close()
	}
	if s.closer != nil {
		s.closer()
	}
	_ = s.logger.Sync()
}

// openSession loads configuration, builds the logger, opens the configured
// storage backend, and restores the persisted log.
func openSession(ctx context.Context, configPath string) (*session, error) {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	slot, closer, err := openSlot(ctx, cfg.Storage)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	src := distribution.NewCryptoSource()
	if cfg.Simulator.Seed != 0 {
		src = distribution.NewSeededSource(cfg.Simulator.Seed)
	}

	sim, err := simulator.New(simulator.Options{
		Generator:   distribution.NewLoggedGenerator(src, logger),
		Store:       storage.NewStore(slot, cfg.Storage.Key, logger),
		Preferences: storage.NewPreferences(slot, logger),
		SettleDelay: cfg.Simulator.SettleDelay,
		Logger:      logger,
	})
	if err != nil {
		closer()
		return nil, err
	}

	if err := sim.Load(ctx); err != nil {
		logger.Warn("starting with an empty log", zap.Error(err))
	}

	logger.Debug("session opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.Stringer("session", sim.SessionID()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &session{cfg: cfg, logger: logger, slot: slot, sim: sim, closer: closer}, nil
}

// openSlot opens the storage backend named by cfg.Backend.
//
// Postcondition: Returns a usable slot and a non-nil closer, or an error.
func openSlot(ctx context.Context, cfg config.StorageConfig) (storage.Slot, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), noop, nil
	case config.BackendFile:
		slot, err := file.Open(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return slot, noop, nil
	case config.BackendSQLite:
		slot, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return slot, func() { _ = slot.Close() }, nil
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return pool.Slot(), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
