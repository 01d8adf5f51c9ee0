// Package postgres provides a PostgreSQL-backed storage.Slot using pgx v5.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/probsim/internal/config"
	"github.com/cory-johannsen/probsim/internal/storage"
)

// Pool owns the connection pool behind a Slot.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg, applying the embedded
// migrations first when cfg.AutoMigrate is set.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a pinged Pool or an error wrapping storage.ErrStorageUnavailable.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.AutoMigrate {
		if _, err := Migrate(cfg.DSN(), Up, 0); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
		}
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: creating connection pool: %w", storage.ErrStorageUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging database: %w", storage.ErrStorageUnavailable, err)
	}
	return &Pool{pool: pool}, nil
}

// Slot returns a storage.Slot over this pool.
func (p *Pool) Slot() *Slot { return NewSlot(p.pool) }

func (p *Pool) Close() { p.pool.Close() }

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool { return p.pool }
