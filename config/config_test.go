package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:  "http and worker",
			input: "http,worker",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeWorker: true,
			},
		},
		{
			name:  "all services with spaces and duplicates",
			input: " http , worker , maintenance , http ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:        true,
				ServiceModeWorker:      true,
				ServiceModeMaintenance: true,
			},
		},
		{name: "empty string", input: "", expectError: true},
		{name: "only commas", input: ",,", expectError: true},
		{name: "unknown service", input: "http,scheduler", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	t.Setenv("ENGINE_SERVICE_URL", "http://engine:8001/")
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("INTERNAL_SHARED_SECRET", "0123456789abcdef0123")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, "LifeBuddy App Service", cfg.HTTP.ServiceName)
	assert.Equal(t, "/api/v1", cfg.HTTP.APIPrefix)
	assert.Equal(t, "http://engine:8001", cfg.Engine.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, SigningAlgorithmHS256, cfg.JWT.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.JWT.TokenTTL())
	assert.Equal(t, "message-broker", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "default", cfg.Queue.Name)
	assert.Equal(t, "X-Internal-Token", cfg.Internal.HeaderName())
}

func TestAppConfig_ValidateRequiresSecrets(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENGINE_SERVICE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
	assert.Contains(t, err.Error(), "INTERNAL_SHARED_SECRET")
}

func TestInternalAuthConfig_RejectsShortSecret(t *testing.T) {
	cfg := InternalAuthConfig{SharedSecret: "short"}
	assert.Error(t, cfg.Validate())
}

func TestSigningAlgorithm_UnmarshalText(t *testing.T) {
	var alg SigningAlgorithm
	require.NoError(t, alg.UnmarshalText([]byte("hs512")))
	assert.Equal(t, SigningAlgorithmHS512, alg)

	assert.Error(t, alg.UnmarshalText([]byte("RS256")))
}

func TestEngineConfig_Validate(t *testing.T) {
	t.Setenv("DATABASE_URL_RLS", "postgres://rls@localhost/lifebuddy")
	t.Setenv("INTERNAL_SHARED_SECRET", "0123456789abcdef0123")
	t.Setenv("SERVICES", "http,worker,maintenance")

	var cfg EngineConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL_FULL")

	cfg.FullDatabase.URL = "postgres://full@localhost/lifebuddy"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8001", cfg.HTTP.Addr)
	assert.Equal(t, "LifeBuddy Cognitive Engine", cfg.HTTP.ServiceName)
}

func TestEngineConfig_StatusPathFollowsAPIPrefix(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		template string
		want     string
	}{
		{name: "default prefix", want: "/api/v1/synthesis/job-status/%s"},
		{name: "custom prefix", prefix: "/lb/v2/", want: "/lb/v2/synthesis/job-status/%s"},
		{name: "root prefix", prefix: "/", want: "/synthesis/job-status/%s"},
		{name: "explicit template wins", prefix: "/lb/v2", template: "/status/%s", want: "/status/%s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL_RLS", "postgres://rls@localhost/lifebuddy")
			if tt.prefix != "" {
				t.Setenv("API_V1_STR", tt.prefix)
			}
			if tt.template != "" {
				t.Setenv("JOB_STATUS_PATH_TEMPLATE", tt.template)
			}

			var cfg EngineConfig
			require.NoError(t, env.Parse(&cfg))
			cfg.Sanitize()

			assert.Equal(t, tt.want, cfg.Submission.StatusPathTemplate)
		})
	}
}

func TestSanitizeGuardrails(t *testing.T) {
	sub := SubmissionConfig{CompletionTimeout: 0, StatusPathTemplate: "/jobs"}
	sub.Sanitize("/api/v1")
	assert.Equal(t, 15*time.Second, sub.CompletionTimeout)
	assert.Equal(t, "/api/v1/synthesis/job-status/%s", sub.StatusPathTemplate)

	m := MaintenanceConfig{PendingMaxAge: time.Minute}
	m.Sanitize()
	assert.Equal(t, "@every 5m", m.Schedule)
	assert.Equal(t, 15*time.Minute, m.PendingMaxAge)

	h := HTTPConfig{APIPrefix: "api/v2/"}
	h.Sanitize(":9000", "svc")
	assert.Equal(t, "/api/v2", h.APIPrefix)
	assert.Equal(t, ":9000", h.Addr)

	n := NotificationsConfig{Enabled: true, SuppressWindow: -time.Second, Slack: SlackNotificationConfig{Enabled: true}}
	n.Sanitize()
	assert.False(t, n.Slack.Enabled, "slack without webhook must be disabled")
	assert.Zero(t, n.SuppressWindow)
}
