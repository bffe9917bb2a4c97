// Package postgres provides the process-wide connection pool and the
// sqlx-backed repositories for users, refresh tokens and login attempts.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing the shared pool.
type Config struct {
	URL      string
	MaxConns int
	Timeout  time.Duration
}

// Connect opens the pooled *sqlx.DB and verifies connectivity with a ping.
// The pool is bounded at MaxConns concurrent connections; a process that
// cannot obtain a working connection at startup must not start, so any
// failure here is returned rather than deferred to the first request.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}
