package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the services the engine process can run.
type ServiceMode string

const (
	// ServiceModeHTTP runs the internal HTTP listener.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the background job workers.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeMaintenance runs the scheduled full-access maintenance tasks.
	ServiceModeMaintenance ServiceMode = "maintenance"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeWorker,
		ServiceModeMaintenance,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if strings.TrimSpace(servicesStr) == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorker, ServiceModeMaintenance:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, worker, maintenance)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// SubmissionConfig controls the write-then-enqueue submit path.
type SubmissionConfig struct {
	// CompletionTimeout bounds a submission once it has started, independent of the client.
	CompletionTimeout time.Duration `env:"SUBMIT_COMPLETION_TIMEOUT" envDefault:"15s"`

	// StatusPathTemplate is the polling URL; %s is replaced with the job id.
	// Unset, it is built from API_V1_STR.
	StatusPathTemplate string `env:"JOB_STATUS_PATH_TEMPLATE"`
}

const jobStatusRoute = "/synthesis/job-status/%s"

// Sanitize applies guardrails to submission configuration values. apiPrefix
// is the sanitized API_V1_STR the gateway serves job status under.
func (s *SubmissionConfig) Sanitize(apiPrefix string) {
	if s.CompletionTimeout < time.Second {
		s.CompletionTimeout = 15 * time.Second
	}
	s.StatusPathTemplate = strings.TrimSpace(s.StatusPathTemplate)
	if strings.Count(s.StatusPathTemplate, "%s") != 1 {
		s.StatusPathTemplate = apiPrefix + jobStatusRoute
	}
}

// WorkerConfig contains background job worker configuration.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"2"`

	// PollWait is how long a worker blocks waiting for a job before checking for shutdown.
	PollWait time.Duration `env:"WORKER_POLL_WAIT" envDefault:"5s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.PollWait < time.Second {
		w.PollWait = time.Second
	}
}

// MaintenanceConfig contains the scheduled maintenance configuration.
type MaintenanceConfig struct {
	// Schedule is a robfig/cron spec, e.g. "@every 5m" or "*/10 * * * *".
	Schedule string `env:"MAINTENANCE_SCHEDULE" envDefault:"@every 5m"`

	// PendingMaxAge is how long an answer may stay PENDING_PROCESSING before it is failed.
	PendingMaxAge time.Duration `env:"PENDING_MAX_AGE" envDefault:"1h"`

	// FailedRetention is how long FAILED answers are kept.
	FailedRetention time.Duration `env:"FAILED_RETENTION" envDefault:"720h"`

	// BatchSize caps rows touched per statement.
	BatchSize int `env:"MAINTENANCE_BATCH_SIZE" envDefault:"500"`
}

// Sanitize applies guardrails to maintenance configuration values.
func (m *MaintenanceConfig) Sanitize() {
	m.Schedule = strings.TrimSpace(m.Schedule)
	if m.Schedule == "" {
		m.Schedule = "@every 5m"
	}
	if m.PendingMaxAge < 15*time.Minute {
		m.PendingMaxAge = 15 * time.Minute
	}
	if m.FailedRetention < time.Hour {
		m.FailedRetention = time.Hour
	}
	if m.BatchSize < 1 {
		m.BatchSize = 1
	}
}

// ReportCacheConfig controls the two-tier cache in front of the latest synthesis report.
type ReportCacheConfig struct {
	Enabled       bool          `env:"REPORT_CACHE_ENABLED"        envDefault:"true"`
	LocalCapacity int           `env:"REPORT_CACHE_LOCAL_CAPACITY" envDefault:"1024"`
	LocalTTL      time.Duration `env:"REPORT_CACHE_LOCAL_TTL"      envDefault:"30s"`
	RemoteTTL     time.Duration `env:"REPORT_CACHE_REMOTE_TTL"     envDefault:"10m"`
}

// Sanitize applies guardrails to report cache configuration values.
func (c *ReportCacheConfig) Sanitize() {
	if c.LocalCapacity < 0 {
		c.LocalCapacity = 0
	}
	if c.LocalTTL <= 0 {
		c.LocalTTL = 30 * time.Second
	}
	if c.RemoteTTL < c.LocalTTL {
		c.RemoteTTL = c.LocalTTL
	}
}
