// Package core defines the ports the engine's services depend on.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
)

// This file contains the repository and backend interfaces (ports in hexagonal architecture)
// the engine's services depend on. Repositories only accept *rls.UserSession, so every
// query they run is bound to one user's row-security context.

// ScopeRunner opens user-scoped and anonymous database scopes.
type ScopeRunner interface {
	// WithUserScope runs fn in a transaction bound to userID and commits only if fn returns nil.
	WithUserScope(ctx context.Context, userID string, fn rls.UserFunc) error
	// WithAnonymousScope runs fn with no identity bound.
	WithAnonymousScope(ctx context.Context, fn rls.AnonymousFunc) error
}

// AnswerRepository defines daily-check answer operations.
type AnswerRepository interface {
	Create(ctx context.Context, s *rls.UserSession, req model.CreateAnswerRequest) (int64, error)
	GetByID(ctx context.Context, s *rls.UserSession, id int64) (*model.Answer, error)
	MarkProcessed(ctx context.Context, s *rls.UserSession, id int64, analysis json.RawMessage) (bool, error)
	MarkFailed(ctx context.Context, s *rls.UserSession, id int64, reason string) (bool, error)
	ListRecent(ctx context.Context, s *rls.UserSession, limit int) ([]model.Answer, error)
}

// UserRepository defines account lookups available to the RLS role.
type UserRepository interface {
	LookupCredentials(ctx context.Context, s *rls.AnonymousSession, username string) (*model.User, error)
	GetSelf(ctx context.Context, s *rls.UserSession) (*model.User, error)
}

// SynthesisRepository defines synthesis report operations.
type SynthesisRepository interface {
	ProcessedAnalyses(ctx context.Context, s *rls.UserSession) ([]model.AnswerAnalysis, error)
	Insert(ctx context.Context, s *rls.UserSession, jobID string, answerCount int, summary json.RawMessage) (int64, error)
	Latest(ctx context.Context, s *rls.UserSession) (*model.SynthesisReport, error)
}

// JobQueue is the producer side of the job queue.
type JobQueue interface {
	Enqueue(ctx context.Context, req model.EnqueueRequest) (model.JobHandle, error)
	Status(ctx context.Context, jobID string) (model.JobStatus, error)
	Healthy(ctx context.Context) bool
}

// JobConsumer is the worker side of the job queue.
type JobConsumer interface {
	Reserve(ctx context.Context, wait time.Duration) (*model.QueuedJob, error)
	Complete(ctx context.Context, id, result string) error
	Fail(ctx context.Context, id, reason string) error
	RequeueStale(ctx context.Context, now time.Time) (int, error)
	Stats(ctx context.Context) (model.QueueStats, error)
}
