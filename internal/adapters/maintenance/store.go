package maintenance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lifebuddy/lifebuddy-api/internal/data"
	"github.com/lifebuddy/lifebuddy-api/internal/data/pgxutil"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// Advisory lock namespace for maintenance statements.
// Two-arg pg_try_advisory_xact_lock(major, minor); major 2000 is reserved for maintenance.
const (
	advisoryLockMajor       = 2000
	advisoryLockFailPending = 1
	advisoryLockPurgeFailed = 2
)

// StaleReason is recorded in the analysis column of answers failed for staleness.
const StaleReason = "Answer timed out in pending status"

// Store runs cross-user statements through the full-access role.
// Nothing on a request path may hold a Store.
type Store struct {
	db           *sql.DB
	timeProvider data.TimeProvider
}

// NewStore creates a Store. A nil timeProvider uses the system clock.
func NewStore(db *sql.DB, timeProvider data.TimeProvider) *Store {
	if timeProvider == nil {
		timeProvider = data.RealTimeProvider{}
	}
	return &Store{db: db, timeProvider: timeProvider}
}

// DB exposes the full-access pool for migrations and health checks.
func (s *Store) DB() *sql.DB { return s.db }

// FailStalePending marks up to batchSize PENDING_PROCESSING answers older than maxAge as FAILED.
// It returns 0 without touching rows when another instance holds the lock.
func (s *Store) FailStalePending(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	reason, err := json.Marshal(map[string]string{"error": StaleReason})
	if err != nil {
		return 0, err
	}
	now := s.timeProvider.Now()
	return s.lockedExec(ctx, advisoryLockFailPending, `
		UPDATE pre_synthesis_answers
		SET status = $1, analysis = $2, updated_at = $3
		WHERE id IN (
			SELECT id FROM pre_synthesis_answers
			WHERE status = $4
			  AND created_at < $5
			ORDER BY created_at
			LIMIT $6
		)`,
		string(model.AnswerStatusFailed), string(reason), now.UTC(),
		string(model.AnswerStatusPending), now.Add(-maxAge).UTC(), batchSize,
	)
}

// PurgeFailed deletes up to batchSize FAILED answers last updated before now-retention.
func (s *Store) PurgeFailed(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	cutoff := s.timeProvider.Now().Add(-retention)
	return s.lockedExec(ctx, advisoryLockPurgeFailed, `
		DELETE FROM pre_synthesis_answers
		WHERE id IN (
			SELECT id FROM pre_synthesis_answers
			WHERE status = $1
			  AND updated_at < $2
			ORDER BY updated_at
			LIMIT $3
		)`,
		string(model.AnswerStatusFailed), cutoff.UTC(), batchSize,
	)
}

func (s *Store) lockedExec(ctx context.Context, minor int, query string, args ...any) (int64, error) {
	var rowsAffected int64
	err := pgxutil.InTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var locked bool
		if err := tx.QueryRowContext(ctx,
			"SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockMajor, minor,
		).Scan(&locked); err != nil {
			return fmt.Errorf("acquire advisory lock: %w", err)
		}
		if !locked {
			return nil
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperrors.MapDBError(err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		rowsAffected = ra
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

// InsertUser stores a new account. passwordHash must already be a bcrypt hash.
func (s *Store) InsertUser(ctx context.Context, username, passwordHash string) (*model.User, error) {
	u := model.User{Username: strings.TrimSpace(username)}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		u.Username, passwordHash, s.timeProvider.Now().UTC(),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsConflict(mapped) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConflict, "Username already exists.")
		}
		return nil, fmt.Errorf("insert user: %w", mapped)
	}
	return &u, nil
}
