package rls

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/lifebuddy/lifebuddy-api/internal/data/pgxutil"
)

const clearContextSQL = "SELECT set_config('app.current_user_id', '', false)"

// OpenConfig describes how to open the RLS-enforced connection pool.
type OpenConfig struct {
	URL             string
	Role            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	Logger          *slog.Logger
}

// Open creates a *sql.DB whose connections reset the session identity on every checkout.
//
// When Role is set each new connection runs SET ROLE so a login role with
// broader rights still sees policies enforced.
func Open(ctx context.Context, cfg OpenConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("rls: database URL is required")
	}
	connCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	opts := []stdlib.OptionOpenDB{stdlib.OptionResetSession(resetSession)}
	if cfg.Role != "" {
		role := cfg.Role
		opts = append(opts, stdlib.OptionAfterConnect(func(ctx context.Context, c *pgx.Conn) error {
			_, execErr := c.Exec(ctx, "SET ROLE "+pgx.Identifier{role}.Sanitize())
			return execErr
		}))
	}

	db := stdlib.OpenDB(*connCfg, opts...)
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "rls pool ready",
			"role", cfg.Role,
			"max_open_conns", cfg.MaxOpenConns,
		)
	}
	return db, nil
}

// resetSession runs before a pooled connection is reused. A connection still
// inside a transaction block is reported bad so database/sql closes it.
func resetSession(ctx context.Context, c *pgx.Conn) error {
	if !pgxutil.IsIdle(c) {
		return driver.ErrBadConn
	}
	if _, err := c.Exec(ctx, clearContextSQL); err != nil {
		return driver.ErrBadConn
	}
	return nil
}
