package maintenance

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifebuddy/lifebuddy-api/internal/data"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, data.NewFixedTimeProvider(fixedNow)), mock
}

func expectLock(mock sqlmock.Sqlmock, minor int, locked bool) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_xact_lock($1, $2)")).
		WithArgs(advisoryLockMajor, minor).
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(locked))
}

func TestStore_FailStalePending(t *testing.T) {
	store, mock := newMockStore(t)

	expectLock(mock, advisoryLockFailPending, true)
	mock.ExpectExec("UPDATE pre_synthesis_answers").
		WithArgs(
			"FAILED",
			`{"error":"Answer timed out in pending status"}`,
			fixedNow,
			"PENDING_PROCESSING",
			fixedNow.Add(-time.Hour),
			500,
		).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := store.FailStalePending(context.Background(), time.Hour, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FailStalePending_LockHeldElsewhere(t *testing.T) {
	store, mock := newMockStore(t)

	expectLock(mock, advisoryLockFailPending, false)
	mock.ExpectCommit()

	n, err := store.FailStalePending(context.Background(), time.Hour, 500)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PurgeFailed(t *testing.T) {
	store, mock := newMockStore(t)

	expectLock(mock, advisoryLockPurgeFailed, true)
	mock.ExpectExec("DELETE FROM pre_synthesis_answers").
		WithArgs("FAILED", fixedNow.Add(-720*time.Hour), 100).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	n, err := store.PurgeFailed(context.Background(), 720*time.Hour, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PurgeFailed_ExecErrorRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	expectLock(mock, advisoryLockPurgeFailed, true)
	mock.ExpectExec("DELETE FROM pre_synthesis_answers").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.PurgeFailed(context.Background(), time.Hour, 100)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "$2a$hash", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-123", fixedNow))

	u, err := store.InsertUser(context.Background(), " alice ", "$2a$hash")
	require.NoError(t, err)
	assert.Equal(t, "u-123", u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, u.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertUser_Duplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "users_username_key",
			Detail:         "Key (username)=(alice) already exists.",
		})

	_, err := store.InsertUser(context.Background(), "alice", "$2a$hash")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "Username already exists.", apperrors.PublicMessage(err))
}
