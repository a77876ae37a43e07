package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lifebuddy/lifebuddy-api/config"
)

// InitLogger initializes the structured logger. LOG_LEVEL selects debug, info, warn or error.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// LoadAppConfig loads and validates the gateway configuration.
func LoadAppConfig() (config.AppConfig, error) {
	var cfg config.AppConfig
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadEngineConfig loads and validates the engine configuration.
func LoadEngineConfig() (config.EngineConfig, error) {
	var cfg config.EngineConfig
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadEnv reads an optional .env file and parses the environment into cfg.
func loadEnv(cfg any) error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// EnabledServiceNames returns the engine services that will run, sorted.
func EnabledServiceNames(cfg *config.EngineConfig) []string {
	if cfg == nil {
		return []string{}
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		// Validation reports the parse error.
		return []string{}
	}
	names := make([]string, 0, len(services))
	for svc := range services {
		names = append(names, string(svc))
	}
	sort.Strings(names)
	return names
}

// LoadAdminConfig loads the admin CLI configuration. Commands check for the
// stores they need themselves.
func LoadAdminConfig() (config.AdminConfig, error) {
	var cfg config.AdminConfig
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Sanitize()
	return cfg, nil
}
