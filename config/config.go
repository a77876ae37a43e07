package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the configuration for the public App gateway.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See the domain config files for the
// available variables:
//   - auth.go: token signing and the gateway to engine shared secret
//   - database.go: Redis and job queue configuration
//   - http.go: HTTP server, engine client and rate limiting
//   - observability.go: metrics and failure notifications
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	HTTP      HTTPConfig
	Engine    EngineClientConfig
	RateLimit RateLimitConfig

	JWT      JWTConfig
	Internal InternalAuthConfig

	Redis RedisConfig `envPrefix:"REDIS_"`
	Queue QueueConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize(defaultAppAddr, defaultAppServiceName)
	c.Engine.Sanitize()
	c.RateLimit.Sanitize()
	c.JWT.Sanitize()
	c.Queue.Sanitize()
	c.Observability.Sanitize()
	c.IsDev = detectDevMode(c.IsDev)
}

// Validate reports configuration that must be present before the gateway can start.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Engine.BaseURL == "" {
		errs = append(errs, errors.New("ENGINE_SERVICE_URL is required"))
	}
	if err := c.JWT.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Internal.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// EngineConfig is the configuration for the Cognitive Engine process.
type EngineConfig struct {
	IsDev bool `env:"DEV" envDefault:"false"`

	HTTP     HTTPConfig
	Internal InternalAuthConfig

	// Services is a comma-delimited list of engine services to run.
	Services string `env:"SERVICES" envDefault:"http,worker"`

	Database     RLSDatabaseConfig
	FullDatabase FullAccessDatabaseConfig

	Redis RedisConfig `envPrefix:"REDIS_"`
	Queue QueueConfig

	Submission  SubmissionConfig
	Worker      WorkerConfig
	Maintenance MaintenanceConfig
	ReportCache ReportCacheConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *EngineConfig) Sanitize() {
	c.HTTP.Sanitize(defaultEngineAddr, defaultEngineServiceName)
	c.Database.Sanitize()
	c.Queue.Sanitize()
	c.Submission.Sanitize(c.HTTP.APIPrefix)
	c.Worker.Sanitize()
	c.Maintenance.Sanitize()
	c.ReportCache.Sanitize()
	c.Observability.Sanitize()
	c.IsDev = detectDevMode(c.IsDev)
}

// Validate reports configuration that must be present before the engine can start.
func (c *EngineConfig) Validate() error {
	services, err := c.GetEnabledServices()
	if err != nil {
		return err
	}

	var errs []error
	if services[ServiceModeHTTP] {
		if ierr := c.Internal.Validate(); ierr != nil {
			errs = append(errs, ierr)
		}
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL_RLS is required"))
	}
	if services[ServiceModeMaintenance] && c.FullDatabase.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL_FULL is required when the maintenance service is enabled"))
	}
	return errors.Join(errs...)
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *EngineConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// detectDevMode checks NODE_ENV as a fallback to the DEV flag.
func detectDevMode(isDev bool) bool {
	if isDev {
		return true
	}
	nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
	return nodeEnv == "development" || nodeEnv == "dev"
}

// AdminConfig is the configuration for the lifebuddy-admin CLI. It only needs
// the full-access principal and the queue.
type AdminConfig struct {
	FullDatabase FullAccessDatabaseConfig

	Redis RedisConfig `envPrefix:"REDIS_"`
	Queue QueueConfig

	Maintenance MaintenanceConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *AdminConfig) Sanitize() {
	c.FullDatabase.URL = strings.TrimSpace(c.FullDatabase.URL)
	c.Queue.Sanitize()
	c.Maintenance.Sanitize()
}
