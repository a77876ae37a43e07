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

const (
	answerColumns = `id, user_id, question_id, answer_text, status, analysis, created_at, updated_at`

	defaultListLimit = 20
	maxListLimit     = 100
)

// AnswerRepo stores daily-check answers. Every method runs under a user
// session, so row security limits it to that user's answers.
type AnswerRepo struct {
	timeProvider TimeProvider
}

// NewAnswerRepo creates an AnswerRepo using the system clock.
func NewAnswerRepo() *AnswerRepo {
	return &AnswerRepo{timeProvider: RealTimeProvider{}}
}

// NewAnswerRepoWithTimeProvider creates an AnswerRepo with a custom clock (useful for tests).
func NewAnswerRepoWithTimeProvider(tp TimeProvider) *AnswerRepo {
	return &AnswerRepo{timeProvider: tp}
}

// Create inserts a PENDING_PROCESSING answer owned by the session user and
// returns its id. The row is flushed but not committed.
func (r *AnswerRepo) Create(ctx context.Context, s *rls.UserSession, req model.CreateAnswerRequest) (int64, error) {
	now := r.timeProvider.Now()
	var id int64
	err := s.QueryRowContext(ctx, `
		INSERT INTO pre_synthesis_answers (user_id, question_id, answer_text, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id`,
		s.UserID(), req.QuestionID, req.AnswerText, model.AnswerStatusPending, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert answer: %w", apperrors.MapDBError(err))
	}
	return id, nil
}

// GetByID returns an answer visible to the session user.
func (r *AnswerRepo) GetByID(ctx context.Context, s *rls.UserSession, id int64) (*model.Answer, error) {
	row := s.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM pre_synthesis_answers WHERE id = $1`, id)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get answer %d: %w", id, apperrors.MapDBError(err))
	}
	return a, nil
}

// MarkProcessed stores the analysis and moves a pending answer to PROCESSED.
// It reports false when the answer was not pending.
func (r *AnswerRepo) MarkProcessed(ctx context.Context, s *rls.UserSession, id int64, analysis json.RawMessage) (bool, error) {
	return r.transition(ctx, s, id, model.AnswerStatusProcessed, analysis)
}

// MarkFailed records reason and moves a pending answer to FAILED.
func (r *AnswerRepo) MarkFailed(ctx context.Context, s *rls.UserSession, id int64, reason string) (bool, error) {
	body, err := json.Marshal(map[string]string{"error": reason})
	if err != nil {
		return false, err
	}
	return r.transition(ctx, s, id, model.AnswerStatusFailed, body)
}

func (r *AnswerRepo) transition(
	ctx context.Context,
	s *rls.UserSession,
	id int64,
	to model.AnswerStatus,
	analysis json.RawMessage,
) (bool, error) {
	if to == model.AnswerStatusPending || !to.Valid() {
		return false, ErrInvalidStatus
	}
	res, err := s.ExecContext(ctx, `
		UPDATE pre_synthesis_answers
		SET status = $2, analysis = $3, updated_at = $4
		WHERE id = $1 AND status = $5`,
		id, to, string(analysis), r.timeProvider.Now(), model.AnswerStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("update answer %d: %w", id, apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListRecent returns the session user's newest answers first.
func (r *AnswerRepo) ListRecent(ctx context.Context, s *rls.UserSession, limit int) ([]model.Answer, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := s.QueryContext(ctx, `
		SELECT `+answerColumns+`
		FROM pre_synthesis_answers
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, s.UserID(), limit)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	out := make([]model.Answer, 0, limit)
	for rows.Next() {
		a, scanErr := scanAnswer(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan answer: %w", scanErr)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (*model.Answer, error) {
	var (
		a        model.Answer
		status   string
		analysis []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.QuestionID,
		&a.AnswerText,
		&status,
		&analysis,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = model.AnswerStatus(status)
	if len(analysis) > 0 {
		a.Analysis = json.RawMessage(analysis)
	}
	return &a, nil
}
