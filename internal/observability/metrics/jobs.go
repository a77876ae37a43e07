package metrics

import (
	"time"

	obserrors "github.com/lifebuddy/lifebuddy-api/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Job lifecycle transitions.
const (
	TransitionReserved  = "reserved"
	TransitionCompleted = "completed"
	TransitionFailed    = "failed"
	TransitionRequeued  = "requeued"
)

// JobMetric captures one job lifecycle event.
type JobMetric struct {
	Kind       string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle records a transition and, when it carries one, the handler duration.
func (m *Metrics) EmitJobLifecycle(in JobMetric) {
	if m == nil {
		return
	}

	class := ""
	if in.Err != nil && in.Result == ResultError {
		class = obserrors.Classify(in.Err)
	}
	m.jobTransitions.WithLabelValues(in.Kind, in.Transition, in.Result, class).Inc()

	if in.Duration > 0 {
		m.jobDuration.WithLabelValues(in.Kind, in.Result).Observe(in.Duration.Seconds())
	}
}
