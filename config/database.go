package config

import (
	"strings"
	"time"
)

// RLSDatabaseConfig configures the pool used for every user-scoped request.
// The login role behind URL must not have BYPASSRLS.
type RLSDatabaseConfig struct {
	URL string `env:"DATABASE_URL_RLS"`

	// Role is assumed with SET ROLE after connecting when the login role is shared.
	Role string `env:"DB_RLS_ROLE" envDefault:""`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"    envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`

	// AcquireTimeout bounds the wait for a free pooled connection.
	AcquireTimeout time.Duration `env:"DB_ACQUIRE_TIMEOUT" envDefault:"3s"`

	// ScopeTimeout bounds a whole user scope, commit or rollback included.
	ScopeTimeout time.Duration `env:"DB_SCOPE_TIMEOUT" envDefault:"15s"`

	// RunMigrationsOnStart applies migrations with the full-access principal during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"false"`
}

// Sanitize applies guardrails to pool settings.
func (c *RLSDatabaseConfig) Sanitize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Role = strings.TrimSpace(c.Role)
	if c.MaxOpenConns < 1 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 3 * time.Second
	}
	if c.ScopeTimeout < time.Second {
		c.ScopeTimeout = 15 * time.Second
	}
}

// FullAccessDatabaseConfig configures the privileged principal used only by maintenance.
type FullAccessDatabaseConfig struct {
	URL          string `env:"DATABASE_URL_FULL"`
	MaxOpenConns int    `env:"DB_FULL_MAX_OPEN_CONNS" envDefault:"4"`
}

// RedisConfig contains Redis connection configuration for the job queue backend.
type RedisConfig struct {
	Host     string `env:"HOST"     envDefault:"message-broker"`
	Port     int    `env:"PORT"     envDefault:"6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// URI overrides Host and Port when set; redis:// and rediss:// URLs are accepted.
	URI string `env:"URI" envDefault:""`

	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:""`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// QueueConfig controls job queue naming and retention.
type QueueConfig struct {
	// Name is the queue jobs are pushed to and reserved from.
	Name string `env:"QUEUE_NAME" envDefault:"default"`

	// KeyPrefix namespaces every queue key in Redis.
	KeyPrefix string `env:"QUEUE_KEY_PREFIX" envDefault:"lifebuddy"`

	// ResultTTL is how long finished and failed job records remain pollable.
	ResultTTL time.Duration `env:"QUEUE_RESULT_TTL" envDefault:"24h"`
}

// Sanitize applies guardrails to queue configuration values.
func (c *QueueConfig) Sanitize() {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = "default"
	}
	c.KeyPrefix = strings.Trim(strings.TrimSpace(c.KeyPrefix), ":")
	if c.KeyPrefix == "" {
		c.KeyPrefix = "lifebuddy"
	}
	if c.ResultTTL < time.Minute {
		c.ResultTTL = time.Minute
	}
}
