// Package main applies the PostgreSQL schema used by the postgres storage backend.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/probsim/internal/config"
	"github.com/cory-johannsen/probsim/internal/observability"
	"github.com/cory-johannsen/probsim/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults plus PROBSIM_ environment when empty)")
	direction := flag.String("direction", postgres.Up, "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	if err := run(*configPath, *direction, *steps); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(configPath, direction string, steps int) error {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	res, err := postgres.Migrate(cfg.Storage.Database.DSN(), direction, steps)
	if err != nil {
		return err
	}
	logger.Info("migration complete",
		zap.String("direction", direction),
		zap.Bool("changed", res.Changed),
		zap.Uint("version", res.Version),
		zap.Bool("dirty", res.Dirty),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
