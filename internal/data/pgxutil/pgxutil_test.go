package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = InTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
			_, execErr := tx.ExecContext(ctx, "UPDATE users SET username = 'x'")
			return execErr
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err = InTx(ctx, db, nil, func(context.Context, *sql.Tx) error { return boom })
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins rollback failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

		boom := errors.New("boom")
		err = InTx(ctx, db, nil, func(context.Context, *sql.Tx) error { return boom })
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "rollback: connection reset")
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.PanicsWithValue(t, "bad handler", func() {
			_ = InTx(ctx, db, nil, func(context.Context, *sql.Tx) error { panic("bad handler") })
		})
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
		called := false
		err = InTx(ctx, db, nil, func(context.Context, *sql.Tx) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
		assert.Contains(t, err.Error(), "begin tx")
	})

	t.Run("commit failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err = InTx(ctx, db, nil, func(context.Context, *sql.Tx) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commit: serialization failure")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
