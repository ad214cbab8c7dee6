package db

import (
	"context"
	"fmt"
	"strings"

	"finndex/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the shared connection pool for the daily value store.
var Pool *pgxpool.Pool

var (
	newPool  = pgxpool.New
	pingPool = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres opens Pool against databaseURL. An empty URL leaves Pool nil
// so the history API falls back to live provider reads.
func InitPostgres(ctx context.Context, databaseURL string) error {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		logger.Get().Warn("DATABASE_URL not set, running without the daily value store")
		return nil
	}

	pool, err := newPool(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pingPool(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("connect to postgres: %w", err)
	}

	Pool = pool
	logger.Get().Info("connected to postgres")
	return nil
}
