// Package store is the pipeline's column-store client: bulk event
// writes, rule loading, alert persistence, and the periodic batch
// correlation / aggregation rebuilds. It is implemented against
// PostgreSQL via pgx, kept behind a narrow surface so a different
// column store could stand in without touching worker logic.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-sec/siemflow/internal/config"
)

// Store wraps a connection pool to the column store.
type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// Open parses cfg into a pgxpool config and connects.
func Open(ctx context.Context, cfg config.Store) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	return &Store{pool: pool, timeout: cfg.Timeout()}, nil
}

// New wraps an already-open pool. Calls through it run with no
// per-statement timeout.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks store connectivity, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// withTimeout derives a context bounded by the store's configured
// send/receive timeout for a single call.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
