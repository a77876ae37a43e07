// Command lifebuddy-engine runs the Cognitive Engine: the internal HTTP
// listener, the job workers and scheduled maintenance, as selected by SERVICES.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadEngineConfig()
	if err != nil {
		return err
	}
	logStartupInfo(ctx, logger, &cfg)

	if !cfg.Database.RunMigrationsOnStart {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}
	return bootstrap.RunEngine(ctx, cfg, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.EngineConfig) {
	logger.InfoContext(ctx, "starting lifebuddy engine",
		"service", cfg.HTTP.ServiceName,
		"addr", cfg.HTTP.Addr,
		"queue", cfg.Queue.Name,
		"enabled_services", bootstrap.EnabledServiceNames(cfg),
		"dev", cfg.IsDev)
}
