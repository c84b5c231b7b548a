package db

import (
	"context"
	"fmt"
	"time"

	"admissions/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// Schema holds every admissions table, see migrations.
	Schema          = "admissions"
	applicationName = "admissions-panel"
	pingTimeout     = 5 * time.Second
)

// Connect opens a pool against DATABASE_URL with the admissions schema on the search path
// unless the URL already names one.
func Connect(ctx context.Context, config *types.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	params := poolConfig.ConnConfig.RuntimeParams
	if _, ok := params["search_path"]; !ok {
		params["search_path"] = Schema
	}
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = applicationName
	}

	if config.DatabaseMaxConns > 0 {
		poolConfig.MaxConns = config.DatabaseMaxConns
	}
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.MaxConnLifetime = 45 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database %s: %w", poolConfig.ConnConfig.Host, err)
	}

	return pool, nil
}
