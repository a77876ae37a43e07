package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// SynthesisRepo aggregates processed answers into reports for the session user.
type SynthesisRepo struct {
	timeProvider TimeProvider
}

// NewSynthesisRepo creates a SynthesisRepo using the system clock.
func NewSynthesisRepo() *SynthesisRepo {
	return &SynthesisRepo{timeProvider: RealTimeProvider{}}
}

// ProcessedAnalyses returns the stored analyses of the session user's processed answers.
func (r *SynthesisRepo) ProcessedAnalyses(ctx context.Context, s *rls.UserSession) ([]model.AnswerAnalysis, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT analysis
		FROM pre_synthesis_answers
		WHERE user_id = $1 AND status = $2 AND analysis IS NOT NULL
		ORDER BY created_at`, s.UserID(), model.AnswerStatusProcessed)
	if err != nil {
		return nil, fmt.Errorf("query processed answers: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var out []model.AnswerAnalysis
	for rows.Next() {
		var raw []byte
		if scanErr := rows.Scan(&raw); scanErr != nil {
			return nil, fmt.Errorf("scan analysis: %w", scanErr)
		}
		var a model.AnswerAnalysis
		if jsonErr := json.Unmarshal(raw, &a); jsonErr != nil {
			continue
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}

// Insert stores the report produced by jobID for the session user and returns
// its id. A job that already stored its report gets the existing id back.
func (r *SynthesisRepo) Insert(ctx context.Context, s *rls.UserSession, jobID string, answerCount int, summary json.RawMessage) (int64, error) {
	var id int64
	err := s.QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO synthesis_reports (user_id, job_id, answer_count, summary, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (job_id) DO NOTHING
			RETURNING id
		)
		SELECT id FROM inserted
		UNION ALL
		SELECT id FROM synthesis_reports WHERE job_id = $2
		LIMIT 1`,
		s.UserID(), jobID, answerCount, string(summary), r.timeProvider.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert synthesis report: %w", apperrors.MapDBError(err))
	}
	return id, nil
}

// Latest returns the session user's newest report.
func (r *SynthesisRepo) Latest(ctx context.Context, s *rls.UserSession) (*model.SynthesisReport, error) {
	var (
		rep     model.SynthesisReport
		summary []byte
	)
	err := s.QueryRowContext(ctx, `
		SELECT id, user_id, answer_count, summary, created_at
		FROM synthesis_reports
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, s.UserID(),
	).Scan(&rep.ID, &rep.UserID, &rep.AnswerCount, &summary, &rep.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("No synthesis report yet")
	}
	if err != nil {
		return nil, fmt.Errorf("latest synthesis report: %w", apperrors.MapDBError(err))
	}
	rep.Summary = json.RawMessage(summary)
	return &rep, nil
}
