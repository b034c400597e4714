// Package db provides the PostgreSQL connection pool and shared helpers.
package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatgatehq/chatgate/internal/config"
)

// Open creates the process-wide connection pool.
func Open(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, DSN(cfg))
}
