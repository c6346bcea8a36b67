package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/config"
)

// DB wraps the pgx connection pool.
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDB creates the connection pool and verifies connectivity.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool initialized",
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return &DB{Pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.Pool.Close()
}
