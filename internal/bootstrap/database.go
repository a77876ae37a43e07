package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/adapters/maintenance"
	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	"github.com/lifebuddy/lifebuddy-api/internal/migrate"
)

// connectTimeout bounds the startup ping of each backing store.
const connectTimeout = 5 * time.Second

// OpenRLSDB opens the row-security enforced pool used for every user request.
func OpenRLSDB(ctx context.Context, cfg config.RLSDatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := rls.Open(ctx, rls.OpenConfig{
		URL:             cfg.URL,
		Role:            cfg.Role,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		PingTimeout:     connectTimeout,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open rls database: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "rls database connected", "role", cfg.Role, "max_open_conns", cfg.MaxOpenConns)
	}
	return db, nil
}

// OpenFullAccessDB opens the privileged pool used by migrations and maintenance.
func OpenFullAccessDB(ctx context.Context, cfg config.FullAccessDatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := maintenance.OpenDB(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open full-access database: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "full-access database connected")
	}
	return db, nil
}

// RunMigrations applies the embedded schema with the full-access principal.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}

	return nil
}
