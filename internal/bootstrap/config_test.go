package bootstrap

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifebuddy/lifebuddy-api/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: " WARN ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestEnabledServiceNames(t *testing.T) {
	tests := []struct {
		name     string
		services string
		want     []string
	}{
		{name: "default", services: "http,worker", want: []string{"http", "worker"}},
		{name: "sorted", services: "worker, maintenance ,http", want: []string{"http", "maintenance", "worker"}},
		{name: "invalid", services: "http,scheduler", want: []string{}},
		{name: "empty", services: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.EngineConfig{Services: tt.services}
			assert.Equal(t, tt.want, EnabledServiceNames(cfg))
		})
	}
	assert.Empty(t, EnabledServiceNames(nil))
}

func TestLoadAppConfig(t *testing.T) {
	t.Setenv("ENGINE_SERVICE_URL", "http://engine:8001/")
	t.Setenv("JWT_SECRET_KEY", "signing-secret")
	t.Setenv("INTERNAL_SHARED_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("API_V1_STR", "/api/v1/")

	cfg, err := LoadAppConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://engine:8001", cfg.Engine.BaseURL)
	assert.Equal(t, "/api/v1", cfg.HTTP.APIPrefix)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, "message-broker", cfg.Redis.Host)
}

func TestLoadAppConfigRequiresSecrets(t *testing.T) {
	t.Setenv("ENGINE_SERVICE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("INTERNAL_SHARED_SECRET", "")

	_, err := LoadAppConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENGINE_SERVICE_URL is required")
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY is required")
}

func TestLoadEngineConfig(t *testing.T) {
	t.Setenv("DATABASE_URL_RLS", "postgres://app_rls@db:5432/lifebuddy")
	t.Setenv("INTERNAL_SHARED_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SERVICES", "http,worker")

	cfg, err := LoadEngineConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8001", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http", "worker"}, EnabledServiceNames(&cfg))
}

func TestLoadEngineConfigMaintenanceNeedsFullDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL_RLS", "postgres://app_rls@db:5432/lifebuddy")
	t.Setenv("DATABASE_URL_FULL", "")
	t.Setenv("SERVICES", "maintenance")

	_, err := LoadEngineConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL_FULL")
}
