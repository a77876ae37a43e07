package model

import (
	"encoding/json"
	"time"
)

// User is a stored account. PasswordHash is a bcrypt hash and never leaves the engine.
type User struct {
	ID           string    `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserRequest is the input for provisioning an account from the admin CLI.
type CreateUserRequest struct {
	Username string `json:"username" validate:"notblank,nonul,max=150"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SynthesisReport aggregates a user's processed answers.
type SynthesisReport struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	AnswerCount int             `json:"answer_count"`
	Summary     json.RawMessage `json:"summary"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MaintenanceReport summarises one maintenance pass.
type MaintenanceReport struct {
	FailedStale   int64 `json:"failed_stale"`
	PurgedFailed  int64 `json:"purged_failed"`
	RequeuedJobs  int   `json:"requeued_jobs"`
	DurationMilli int64 `json:"duration_ms"`
}
