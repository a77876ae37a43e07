package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// minSharedSecretLength is the shortest gateway to engine secret accepted at startup.
const minSharedSecretLength = 16

// SigningAlgorithm is the HMAC algorithm used for access tokens.
type SigningAlgorithm string

const (
	SigningAlgorithmHS256 SigningAlgorithm = "HS256"
	SigningAlgorithmHS384 SigningAlgorithm = "HS384"
	SigningAlgorithmHS512 SigningAlgorithm = "HS512"
)

// UnmarshalText implements encoding.TextUnmarshaler for SigningAlgorithm.
func (a *SigningAlgorithm) UnmarshalText(text []byte) error {
	v := SigningAlgorithm(strings.ToUpper(strings.TrimSpace(string(text))))
	switch v {
	case SigningAlgorithmHS256, SigningAlgorithmHS384, SigningAlgorithmHS512:
		*a = v
		return nil
	default:
		return fmt.Errorf("invalid ALGORITHM: %q (valid options: HS256, HS384, HS512)", string(text))
	}
}

// JWTConfig controls issuing and verifying bearer tokens on the gateway.
type JWTConfig struct {
	// SecretKey signs access tokens. There is no default.
	SecretKey string `env:"JWT_SECRET_KEY"`

	Algorithm SigningAlgorithm `env:"ALGORITHM" envDefault:"HS256"`

	// ExpireMinutes is the access token lifetime.
	ExpireMinutes int `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`

	// Issuer is written to and checked against the iss claim.
	Issuer string `env:"JWT_ISSUER" envDefault:"lifebuddy-app"`
}

// Sanitize applies guardrails to token configuration values.
func (c *JWTConfig) Sanitize() {
	if c.Algorithm == "" {
		c.Algorithm = SigningAlgorithmHS256
	}
	if c.ExpireMinutes < 1 {
		c.ExpireMinutes = 30
	}
	c.Issuer = strings.TrimSpace(c.Issuer)
}

// Validate reports a missing signing secret.
func (c *JWTConfig) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	return nil
}

// TokenTTL returns the access token lifetime as a duration.
func (c *JWTConfig) TokenTTL() time.Duration {
	return time.Duration(c.ExpireMinutes) * time.Minute
}

// InternalAuthConfig holds the secret shared between the gateway and the engine.
type InternalAuthConfig struct {
	SharedSecret string `env:"INTERNAL_SHARED_SECRET"`

	// Header carries the shared secret on internal requests.
	Header string `env:"INTERNAL_AUTH_HEADER" envDefault:"X-Internal-Token"`
}

// Validate reports a missing or weak shared secret.
func (c *InternalAuthConfig) Validate() error {
	secret := strings.TrimSpace(c.SharedSecret)
	if secret == "" {
		return errors.New("INTERNAL_SHARED_SECRET is required")
	}
	if len(secret) < minSharedSecretLength {
		return fmt.Errorf("INTERNAL_SHARED_SECRET must be at least %d characters", minSharedSecretLength)
	}
	return nil
}

// HeaderName returns the configured header, falling back to X-Internal-Token.
func (c *InternalAuthConfig) HeaderName() string {
	if h := strings.TrimSpace(c.Header); h != "" {
		return h
	}
	return "X-Internal-Token"
}
