package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobKind identifies which handler a worker runs for a queued job.
// The set is closed; the queue stores the kind's string form.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobKind string

const (
	// JobKindImplicitCheck analyses one daily-check answer. Args: user_id, answer_id.
	JobKindImplicitCheck JobKind = "daily_check.process_implicit_check"
	// JobKindSynthesis aggregates a user's processed answers. Args: user_id.
	JobKindSynthesis JobKind = "synthesis.perform_synthesis"
)

// JobKindSpec describes the argument shape and default timeout of a job kind.
type JobKindSpec struct {
	Kind    JobKind
	Arity   int
	Timeout time.Duration
}

var jobKindSpecs = map[JobKind]JobKindSpec{
	JobKindImplicitCheck: {Kind: JobKindImplicitCheck, Arity: 2, Timeout: 10 * time.Minute},
	JobKindSynthesis:     {Kind: JobKindSynthesis, Arity: 1, Timeout: 20 * time.Minute},
}

// JobKinds returns every known job kind.
func JobKinds() []JobKind {
	return []JobKind{JobKindImplicitCheck, JobKindSynthesis}
}

// Valid returns true if the JobKind is known.
func (k JobKind) Valid() bool {
	_, ok := jobKindSpecs[k]
	return ok
}

// Spec returns the argument shape for the kind.
func (k JobKind) Spec() (JobKindSpec, bool) {
	spec, ok := jobKindSpecs[k]
	return spec, ok
}

// UnmarshalText implements encoding.TextUnmarshaler for JobKind.
func (k *JobKind) UnmarshalText(text []byte) error {
	v := JobKind(strings.TrimSpace(string(text)))
	if !v.Valid() {
		return fmt.Errorf("invalid JobKind: %q", string(text))
	}
	*k = v
	return nil
}

// ErrNoJobsAvailable is returned when no jobs are available for reservation.
var ErrNoJobsAvailable = errors.New("no jobs available")

// EnqueueRequest describes a job to push onto the queue.
type EnqueueRequest struct {
	Kind    JobKind
	Args    []string
	Timeout time.Duration
	// Owner is the user the job acts for; status reads are restricted to it.
	Owner string
}

// Validate checks the request against the kind's argument shape.
func (r EnqueueRequest) Validate() error {
	spec, ok := r.Kind.Spec()
	if !ok {
		return fmt.Errorf("unknown job kind %q", r.Kind)
	}
	if len(r.Args) != spec.Arity {
		return fmt.Errorf("job kind %s takes %d args, got %d", r.Kind, spec.Arity, len(r.Args))
	}
	for i, a := range r.Args {
		if a == "" {
			return fmt.Errorf("job kind %s: argument %d is empty", r.Kind, i)
		}
	}
	if r.Timeout <= 0 {
		return errors.New("job timeout must be positive")
	}
	return nil
}

// JobHandle identifies an enqueued job. It outlives the request that created it.
type JobHandle struct {
	JobID      uuid.UUID     `json:"job_id"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
	Timeout    time.Duration `json:"timeout"`
	Target     JobKind       `json:"target"`
	Args       []string      `json:"args"`
}

// JobState is the queue backend's lifecycle state for a job.
type JobState string

const (
	JobStateQueued   JobState = "queued"
	JobStateStarted  JobState = "started"
	JobStateFinished JobState = "finished"
	JobStateFailed   JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobStateFinished || s == JobStateFailed
}

// PublicStatus maps the lifecycle state onto the values reported to clients.
func (s JobState) PublicStatus() string {
	switch s {
	case JobStateFinished:
		return "SUCCESS"
	case JobStateFailed:
		return "FAILED"
	default:
		return "PENDING"
	}
}

// JobStatus is a read-only snapshot of a job.
type JobStatus struct {
	JobID      string     `json:"job_id"`
	Kind       JobKind    `json:"kind"`
	State      JobState   `json:"state"`
	Status     string     `json:"status"`
	Owner      string     `json:"-"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Attempts   int        `json:"attempts"`
	Error      string     `json:"error,omitempty"`
	Result     string     `json:"result,omitempty"`
}

// QueuedJob is a job reserved by a worker.
type QueuedJob struct {
	ID        string
	Kind      JobKind
	Args      []string
	Timeout   time.Duration
	Attempts  int
	StartedAt time.Time
}

// JobInitiationResult is returned to the client when a submission has been accepted.
type JobInitiationResult struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
	Message   string `json:"message"`
}

// SynthesisJobAccepted is returned when a synthesis job is accepted.
type SynthesisJobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// QueueStats reports queue depth.
type QueueStats struct {
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
}
