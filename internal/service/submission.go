package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lifebuddy/lifebuddy-api/internal/core"
	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/validation"
)

const (
	// SubmissionAcceptedMessage is returned with every accepted daily-check submission.
	SubmissionAcceptedMessage = "Job successfully enqueued. Check status_url for result."

	// SubmissionFailedMessage replaces database and queue detail in client-facing errors.
	SubmissionFailedMessage = "Engine failed to process request and enqueue job."

	defaultCompletionTimeout  = 15 * time.Second
	defaultStatusPathTemplate = "/api/v1/synthesis/job-status/%s"
)

// SubmissionServiceOptions groups dependencies for SubmissionService.
type SubmissionServiceOptions struct {
	Scopes  core.ScopeRunner      // Required: RLS scope runner
	Answers core.AnswerRepository // Required: answer repository
	Queue   core.JobQueue         // Required: job queue producer
	Config  SubmissionConfig      // Optional: timeouts and status URL shape
	Logger  *slog.Logger          // Optional: structured logger
}

// SubmissionConfig tunes the write-then-enqueue path.
type SubmissionConfig struct {
	// CompletionTimeout bounds a submission once started, independent of the client.
	CompletionTimeout time.Duration
	// StatusPathTemplate builds status_url; %s is replaced with the job id.
	StatusPathTemplate string
}

// SubmissionService turns a daily-check answer into a stored row and a queued analysis job.
//
// The insert is flushed before the enqueue and committed only after the
// enqueue succeeded, so a committed answer always has a job and a failed
// enqueue never leaves an orphan row.
type SubmissionService struct {
	scopes   core.ScopeRunner
	answers  core.AnswerRepository
	queue    core.JobQueue
	validate *validation.Validator
	cfg      SubmissionConfig
	logger   *slog.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(opts SubmissionServiceOptions) (*SubmissionService, error) {
	if opts.Scopes == nil {
		return nil, errors.New("ScopeRunner is required")
	}
	if opts.Answers == nil {
		return nil, errors.New("AnswerRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("JobQueue is required")
	}
	cfg := opts.Config
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = defaultCompletionTimeout
	}
	if cfg.StatusPathTemplate == "" {
		cfg.StatusPathTemplate = defaultStatusPathTemplate
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionService{
		scopes:   opts.Scopes,
		answers:  opts.Answers,
		queue:    opts.Queue,
		validate: validation.New(),
		cfg:      cfg,
		logger:   logger.With("component", "submission_service"),
	}, nil
}

// HandleProxiedSubmit stores the answer under the caller's row-security scope,
// enqueues its implicit-check job and commits.
//
// Once validation passes the submission no longer follows ctx cancellation;
// it runs to commit or rollback within the completion timeout.
func (s *SubmissionService) HandleProxiedSubmit(
	ctx context.Context,
	identity domainauth.Identity,
	req model.SubmitDailyAnswerRequest,
) (model.JobInitiationResult, error) {
	if err := identity.Validate(); err != nil {
		return model.JobInitiationResult{}, apperrors.Authentication("Could not validate credentials")
	}
	if err := s.validate.Struct(req); err != nil {
		return model.JobInitiationResult{}, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CompletionTimeout)
	defer cancel()

	var (
		answerID int64
		handle   model.JobHandle
	)
	err := s.scopes.WithUserScope(ctx, identity.UserID, func(ctx context.Context, sess *rls.UserSession) error {
		id, err := s.answers.Create(ctx, sess, model.CreateAnswerRequest{
			QuestionID: req.QuestionID,
			AnswerText: req.AnswerText,
		})
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
		answerID = id

		spec, _ := model.JobKindImplicitCheck.Spec()
		h, err := s.queue.Enqueue(ctx, model.EnqueueRequest{
			Kind:    model.JobKindImplicitCheck,
			Args:    []string{identity.UserID, strconv.FormatInt(id, 10)},
			Timeout: spec.Timeout,
			Owner:   identity.UserID,
		})
		if err != nil {
			return fmt.Errorf("enqueue implicit check: %w", err)
		}
		handle = h
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "daily answer submission failed",
			"user_id", identity.UserID,
			"question_id", req.QuestionID,
			"code", apperrors.PublicCode(err),
			"error", err,
		)
		return model.JobInitiationResult{}, publicSubmissionError(err)
	}

	jobID := handle.JobID.String()
	s.logger.InfoContext(ctx, "daily answer accepted",
		"user_id", identity.UserID,
		"answer_id", answerID,
		"job_id", jobID,
	)
	return model.JobInitiationResult{
		JobID:     jobID,
		StatusURL: fmt.Sprintf(s.cfg.StatusPathTemplate, jobID),
		Message:   SubmissionAcceptedMessage,
	}, nil
}

// publicSubmissionError keeps the taxonomy class of err and replaces its message.
// Retry hints are preserved through the code; the cause stays for logging.
func publicSubmissionError(err error) error {
	code := apperrors.GetCode(err)
	switch code {
	case "":
		code = apperrors.ErrCodeInternal
	case apperrors.ErrCodeValidation, apperrors.ErrCodeNotFound, apperrors.ErrCodeForeignKey:
		// Constraint failures the validator could not see; the message is safe to return.
		return err
	}
	return apperrors.Wrap(err, code, SubmissionFailedMessage)
}
