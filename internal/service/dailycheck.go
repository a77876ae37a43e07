package service

import (
	"context"
	"errors"

	"github.com/lifebuddy/lifebuddy-api/internal/core"
	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// DailyCheckServiceOptions groups dependencies for DailyCheckService.
type DailyCheckServiceOptions struct {
	Scopes    core.ScopeRunner         // Required: RLS scope runner
	Answers   core.AnswerRepository    // Required: answer repository
	Synthesis core.SynthesisRepository // Optional: enables LatestSynthesis
	Reports   core.SynthesisCache      // Optional: read-through cache for LatestSynthesis
}

// DailyCheckService reads a user's own answers and reports.
type DailyCheckService struct {
	scopes    core.ScopeRunner
	answers   core.AnswerRepository
	synthesis core.SynthesisRepository
	reports   core.SynthesisCache
}

// NewDailyCheckService constructs a DailyCheckService.
func NewDailyCheckService(opts DailyCheckServiceOptions) (*DailyCheckService, error) {
	if opts.Scopes == nil {
		return nil, errors.New("ScopeRunner is required")
	}
	if opts.Answers == nil {
		return nil, errors.New("AnswerRepository is required")
	}
	return &DailyCheckService{
		scopes:    opts.Scopes,
		answers:   opts.Answers,
		synthesis: opts.Synthesis,
		reports:   opts.Reports,
	}, nil
}

// Status lists the caller's most recent answers and counts those still pending.
func (s *DailyCheckService) Status(ctx context.Context, identity domainauth.Identity, limit int) (model.DailyCheckStatus, error) {
	var out model.DailyCheckStatus
	err := s.scopes.WithUserScope(ctx, identity.UserID, func(ctx context.Context, sess *rls.UserSession) error {
		answers, err := s.answers.ListRecent(ctx, sess, limit)
		if err != nil {
			return err
		}
		out.Answers = answers
		return nil
	})
	if err != nil {
		return model.DailyCheckStatus{}, err
	}
	if out.Answers == nil {
		out.Answers = []model.Answer{}
	}
	for _, a := range out.Answers {
		if a.Status == model.AnswerStatusPending {
			out.Pending++
		}
	}
	return out, nil
}

// LatestSynthesis returns the caller's newest synthesis report.
func (s *DailyCheckService) LatestSynthesis(ctx context.Context, identity domainauth.Identity) (*model.SynthesisReport, error) {
	if s.synthesis == nil {
		return nil, apperrors.NotFound("No synthesis report yet")
	}
	if s.reports != nil {
		if rep, ok := s.reports.Latest(ctx, identity.UserID); ok {
			return rep, nil
		}
	}
	var rep *model.SynthesisReport
	err := s.scopes.WithUserScope(ctx, identity.UserID, func(ctx context.Context, sess *rls.UserSession) error {
		r, err := s.synthesis.Latest(ctx, sess)
		if err != nil {
			return err
		}
		rep = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.reports != nil {
		s.reports.StoreLatest(ctx, identity.UserID, rep)
	}
	return rep, nil
}
