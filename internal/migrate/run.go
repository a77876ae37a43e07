// Package migrate applies the engine's embedded SQL migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lifebuddy/lifebuddy-api/internal/data/pgxutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// lockKey serialises concurrent migrators (engine replicas starting together).
const lockKey int64 = 0x6c6966656275

// Migration is one embedded migration file and whether it has been applied.
type Migration struct {
	Version string
	Applied bool
}

// Run applies all SQL migrations embedded in this package. It is safe to call multiple times.
// db must connect as a role allowed to create roles, tables and policies.
func Run(ctx context.Context, db *sql.DB) error {
	if err := ensureTable(ctx, db); err != nil {
		return err
	}
	files, err := listFiles()
	if err != nil {
		return err
	}
	logger := slog.Default().With("component", "migrations")
	for _, f := range files {
		if applyErr := apply(ctx, db, logger, f); applyErr != nil {
			return applyErr
		}
	}
	return nil
}

// Status lists embedded migrations in order with their applied state.
func Status(ctx context.Context, db *sql.DB) ([]Migration, error) {
	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}
	files, err := listFiles()
	if err != nil {
		return nil, err
	}
	out := make([]Migration, 0, len(files))
	for _, f := range files {
		version := strings.TrimSuffix(f, ".sql")
		var applied bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&applied); err != nil {
			return nil, fmt.Errorf("check migration %s: %w", f, err)
		}
		out = append(out, Migration{Version: version, Applied: applied})
	}
	return out, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func listFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// apply runs one file in its own transaction under a transaction-scoped advisory lock.
func apply(ctx context.Context, db *sql.DB, logger *slog.Logger, file string) error {
	version := strings.TrimSuffix(file, ".sql")
	body, err := migrationsFS.ReadFile("migrations/" + file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	return pgxutil.InTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, lockErr := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); lockErr != nil {
			return fmt.Errorf("lock migrations: %w", lockErr)
		}
		var exists bool
		if scanErr := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists); scanErr != nil {
			return fmt.Errorf("check migration %s: %w", file, scanErr)
		}
		if exists {
			return nil
		}

		logger.InfoContext(ctx, "applying migration", "version", version)
		if _, execErr := tx.ExecContext(ctx, string(body)); execErr != nil {
			return fmt.Errorf("exec migration %s: %w", file, execErr)
		}
		if _, insErr := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, version,
		); insErr != nil {
			return fmt.Errorf("record migration %s: %w", file, insErr)
		}
		return nil
	})
}
