package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lifebuddy/lifebuddy-api/internal/core"
	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/analysis"
	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// ErrBadJobArgs marks a job whose arguments can never be processed.
var ErrBadJobArgs = errors.New("invalid job arguments")

// Results recorded on jobs that had nothing to do.
const (
	resultAnswerMissing = "skipped: answer not found"
	resultAlreadyDone   = "skipped: answer already "
)

// JobProcessorOptions groups dependencies for JobProcessor.
type JobProcessorOptions struct {
	Scopes    core.ScopeRunner         // Required: RLS scope runner
	Answers   core.AnswerRepository    // Required: answer repository
	Synthesis core.SynthesisRepository // Required: synthesis repository
	Reports   core.SynthesisCache      // Optional: invalidated after each new report
	Logger    *slog.Logger             // Optional: structured logger
}

// JobProcessor implements the worker-side handlers for each job kind.
// Handlers are idempotent: re-running a job against an answer that already
// left PENDING_PROCESSING changes nothing.
type JobProcessor struct {
	scopes    core.ScopeRunner
	answers   core.AnswerRepository
	synthesis core.SynthesisRepository
	reports   core.SynthesisCache
	logger    *slog.Logger
}

// NewJobProcessor constructs a JobProcessor.
func NewJobProcessor(opts JobProcessorOptions) (*JobProcessor, error) {
	switch {
	case opts.Scopes == nil:
		return nil, errors.New("ScopeRunner is required")
	case opts.Answers == nil:
		return nil, errors.New("AnswerRepository is required")
	case opts.Synthesis == nil:
		return nil, errors.New("SynthesisRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobProcessor{
		scopes:    opts.Scopes,
		answers:   opts.Answers,
		synthesis: opts.Synthesis,
		reports:   opts.Reports,
		logger:    logger.With("component", "job_processor"),
	}, nil
}

// ProcessImplicitCheck analyses one answer and records the outcome on it.
// Args: user_id, answer_id.
func (p *JobProcessor) ProcessImplicitCheck(ctx context.Context, job *model.QueuedJob) (string, error) {
	if len(job.Args) != 2 {
		return "", fmt.Errorf("%w: want user_id, answer_id", ErrBadJobArgs)
	}
	userID := job.Args[0]
	if err := domainauth.ValidateUserID(userID); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadJobArgs, err)
	}
	answerID, err := strconv.ParseInt(job.Args[1], 10, 64)
	if err != nil || answerID <= 0 {
		return "", fmt.Errorf("%w: answer_id %q", ErrBadJobArgs, job.Args[1])
	}

	var (
		result      string
		analysisErr error
	)
	err = p.scopes.WithUserScope(ctx, userID, func(ctx context.Context, sess *rls.UserSession) error {
		answer, err := p.answers.GetByID(ctx, sess, answerID)
		if apperrors.IsNotFound(err) {
			result = resultAnswerMissing
			return nil
		}
		if err != nil {
			return err
		}
		if answer.Status != model.AnswerStatusPending {
			result = resultAlreadyDone + string(answer.Status)
			return nil
		}

		out, err := analysis.Analyze(answer.AnswerText)
		if err != nil {
			analysisErr = err
			if _, markErr := p.answers.MarkFailed(ctx, sess, answerID, err.Error()); markErr != nil {
				return markErr
			}
			return nil
		}

		raw, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
		changed, err := p.answers.MarkProcessed(ctx, sess, answerID, raw)
		if err != nil {
			return err
		}
		if !changed {
			result = resultAlreadyDone + "processed"
			return nil
		}
		result = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	if analysisErr != nil {
		p.logger.WarnContext(ctx, "answer analysis failed",
			"job_id", job.ID,
			"answer_id", answerID,
			"error", analysisErr,
		)
		return "", fmt.Errorf("analyse answer %d: %w", answerID, analysisErr)
	}
	p.logger.InfoContext(ctx, "implicit check done", "job_id", job.ID, "answer_id", answerID)
	return result, nil
}

// synthesisResult is the job result stored for a synthesis run.
type synthesisResult struct {
	ReportID    int64 `json:"report_id"`
	AnswerCount int   `json:"answer_count"`
}

// PerformSynthesis aggregates the user's processed answers into a new report.
// A redelivered job reports the row its first run stored. Args: user_id.
func (p *JobProcessor) PerformSynthesis(ctx context.Context, job *model.QueuedJob) (string, error) {
	if len(job.Args) != 1 {
		return "", fmt.Errorf("%w: want user_id", ErrBadJobArgs)
	}
	userID := job.Args[0]
	if err := domainauth.ValidateUserID(userID); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadJobArgs, err)
	}

	var res synthesisResult
	err := p.scopes.WithUserScope(ctx, userID, func(ctx context.Context, sess *rls.UserSession) error {
		analyses, err := p.synthesis.ProcessedAnalyses(ctx, sess)
		if err != nil {
			return err
		}
		summary, err := json.Marshal(analysis.Summarize(analyses))
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		id, err := p.synthesis.Insert(ctx, sess, job.ID, len(analyses), summary)
		if err != nil {
			return err
		}
		res = synthesisResult{ReportID: id, AnswerCount: len(analyses)}
		return nil
	})
	if err != nil {
		return "", err
	}
	if p.reports != nil {
		p.reports.Invalidate(ctx, userID)
	}

	out, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	p.logger.InfoContext(ctx, "synthesis done",
		"job_id", job.ID,
		"report_id", res.ReportID,
		"answer_count", res.AnswerCount,
	)
	return string(out), nil
}
