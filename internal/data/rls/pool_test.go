package rls

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

var setContextPattern = regexp.QuoteMeta(setContextSQL)

func newMockPool(t *testing.T) (*Pool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return MustNewPool(Options{DB: db}), mock
}

func TestNewPool_RequiresDB(t *testing.T) {
	_, err := NewPool(Options{})
	require.Error(t, err)
	assert.Panics(t, func() { MustNewPool(Options{}) })
}

func TestWithUserScope_CommitsAfterSettingContext(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(setContextPattern).WithArgs("u-123").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO pre_synthesis_answers").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := pool.WithUserScope(context.Background(), "u-123", func(ctx context.Context, s *UserSession) error {
		assert.Equal(t, "u-123", s.UserID())
		_, execErr := s.ExecContext(ctx, "INSERT INTO pre_synthesis_answers (user_id) VALUES ($1)", s.UserID())
		return execErr
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithUserScope_RollsBackOnCallbackError(t *testing.T) {
	pool, mock := newMockPool(t)
	boom := errors.New("enqueue refused")

	mock.ExpectBegin()
	mock.ExpectExec(setContextPattern).WithArgs("u-123").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := pool.WithUserScope(context.Background(), "u-123", func(context.Context, *UserSession) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithUserScope_SetupFailureSkipsCallbackAndDiscards(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(setContextPattern).WithArgs("u-123").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()
	mock.ExpectClose()

	called := false
	err := pool.WithUserScope(context.Background(), "u-123", func(context.Context, *UserSession) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsScopeSetup(err))
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithUserScope_BeginFailure(t *testing.T) {
	pool, mock := newMockPool(t)
	mock.ExpectBegin().WillReturnError(errors.New("server closed the connection"))

	err := pool.WithUserScope(context.Background(), "u-123", func(context.Context, *UserSession) error {
		t.Fatal("callback must not run")
		return nil
	})

	assert.True(t, apperrors.IsScopeSetup(err))
}

func TestWithUserScope_RejectsMalformedUserID(t *testing.T) {
	pool, mock := newMockPool(t)

	for _, id := range []string{"", "u 1", "u-1'; DROP TABLE users; --"} {
		err := pool.WithUserScope(context.Background(), id, func(context.Context, *UserSession) error {
			t.Fatal("callback must not run")
			return nil
		})
		assert.True(t, apperrors.IsScopeSetup(err), id)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithUserScope_PanicRollsBackAndRepanics(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(setContextPattern).WithArgs("u-123").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()
	mock.ExpectClose()

	assert.PanicsWithValue(t, "handler bug", func() {
		_ = pool.WithUserScope(context.Background(), "u-123", func(context.Context, *UserSession) error {
			panic("handler bug")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithUserScope_CommitFailureIsReported(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(setContextPattern).WithArgs("u-123").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("could not serialize access"))

	err := pool.WithUserScope(context.Background(), "u-123", func(context.Context, *UserSession) error {
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(err))
}

func TestWithUserScope_CanceledBeforeAcquire(t *testing.T) {
	pool, _ := newMockPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.WithUserScope(ctx, "u-123", func(context.Context, *UserSession) error {
		t.Fatal("callback must not run")
		return nil
	})

	assert.True(t, apperrors.IsCanceled(err))
}

func TestWithUserScope_ScopeContextOutlivesCallerCancel(t *testing.T) {
	pool, mock := newMockPool(t)
	ctx, cancel := context.WithCancel(context.Background())

	mock.ExpectBegin()
	mock.ExpectExec(setContextPattern).WithArgs("u-123").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := pool.WithUserScope(ctx, "u-123", func(scopeCtx context.Context, _ *UserSession) error {
		cancel()
		assert.NoError(t, scopeCtx.Err())
		_, hasDeadline := scopeCtx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSession_CurrentSetting(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(setContextPattern).WithArgs("u-123").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(currentSettingSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"current_setting"}).AddRow("u-123"))
	mock.ExpectCommit()

	var got string
	err := pool.WithUserScope(context.Background(), "u-123", func(ctx context.Context, s *UserSession) error {
		var err error
		got, err = s.CurrentSetting(ctx)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, "u-123", got)
}

func TestWithAnonymousScope_BindsEmptyIdentity(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(setContextPattern).WithArgs("").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := pool.WithAnonymousScope(context.Background(), func(context.Context, *AnonymousSession) error {
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
