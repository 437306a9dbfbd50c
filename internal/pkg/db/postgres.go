// Package db opens the PostgreSQL pool backing the wager journal.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"red-or-black-bot/internal/config"
)

// Pool wraps pgxpool.Pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to PostgreSQL and verifies the connection with a ping.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Connecting to PostgreSQL")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL")

	return &Pool{Pool: pool}, nil
}

// PoolConfig builds the pgxpool settings from cfg, filling in defaults for
// unset durations. The journal writes one row per wager, so a quarter of the
// pool is kept warm.
func PoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	poolConfig.MinConns = poolConfig.MaxConns / 4
	if poolConfig.MinConns < 1 {
		poolConfig.MinConns = 1
	}

	poolConfig.ConnConfig.ConnectTimeout = orDefault(cfg.ConnectTimeout, 10*time.Second)
	poolConfig.MaxConnLifetime = orDefault(cfg.MaxConnLifetime, time.Hour)
	poolConfig.MaxConnIdleTime = orDefault(cfg.MaxConnIdleTime, 30*time.Minute)
	poolConfig.HealthCheckPeriod = 30 * time.Second

	return poolConfig, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

// Close closes the connection pool.
func (p *Pool) Close() {
	if p.Pool != nil {
		p.Pool.Close()
		log.Info().Msg("PostgreSQL connection pool closed")
	}
}
