package config

import (
	"strings"
	"time"
)

const (
	defaultAppAddr           = ":8000"
	defaultEngineAddr        = ":8001"
	defaultAppServiceName    = "LifeBuddy App Service"
	defaultEngineServiceName = "LifeBuddy Cognitive Engine"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR"`

	// ServiceName is reported by the root status endpoint.
	ServiceName string `env:"SERVICE_NAME"`

	// APIPrefix is prepended to every public route.
	APIPrefix string `env:"API_V1_STR" envDefault:"/api/v1"`
}

// Sanitize fills service specific defaults and normalises the API prefix.
func (h *HTTPConfig) Sanitize(defaultAddr, defaultName string) {
	if strings.TrimSpace(h.Addr) == "" {
		h.Addr = defaultAddr
	}
	if strings.TrimSpace(h.ServiceName) == "" {
		h.ServiceName = defaultName
	}
	h.APIPrefix = "/" + strings.Trim(strings.TrimSpace(h.APIPrefix), "/")
	if h.APIPrefix == "/" {
		h.APIPrefix = ""
	}
}

// EngineClientConfig configures the gateway's client for the internal engine.
type EngineClientConfig struct {
	// BaseURL of the engine's internal listener. There is no default.
	BaseURL string `env:"ENGINE_SERVICE_URL"`

	// Timeout bounds every forwarded call.
	Timeout time.Duration `env:"ENGINE_TIMEOUT" envDefault:"5s"`

	// BreakerMaxFailures consecutive failures open the circuit.
	BreakerMaxFailures uint32 `env:"BREAKER_MAX_FAILURES" envDefault:"5"`

	// BreakerOpenTimeout is how long the circuit stays open before probing.
	BreakerOpenTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to engine client configuration values.
func (c *EngineClientConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Timeout > 30*time.Second {
		c.Timeout = 30 * time.Second
	}
	if c.BreakerMaxFailures == 0 {
		c.BreakerMaxFailures = 5
	}
	if c.BreakerOpenTimeout < time.Second {
		c.BreakerOpenTimeout = 30 * time.Second
	}
}

// RateLimitConfig controls per-caller request limits on the gateway.
type RateLimitConfig struct {
	Enabled bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RPS     float64 `env:"RATE_LIMIT_RPS"     envDefault:"5"`
	Burst   int     `env:"RATE_LIMIT_BURST"   envDefault:"10"`
}

// Sanitize applies guardrails to rate limit values.
func (c *RateLimitConfig) Sanitize() {
	if c.RPS <= 0 {
		c.RPS = 5
	}
	if c.Burst < 1 {
		c.Burst = 1
	}
}
