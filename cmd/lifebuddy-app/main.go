// Command lifebuddy-app runs the public App gateway.
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
	cfg, err := bootstrap.LoadAppConfig()
	if err != nil {
		return err
	}
	logStartupInfo(ctx, logger, &cfg)
	return bootstrap.RunApp(ctx, cfg, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting lifebuddy app",
		"service", cfg.HTTP.ServiceName,
		"addr", cfg.HTTP.Addr,
		"api_prefix", cfg.HTTP.APIPrefix,
		"engine_url", cfg.Engine.BaseURL,
		"rate_limit", cfg.RateLimit.Enabled,
		"dev", cfg.IsDev)
}
