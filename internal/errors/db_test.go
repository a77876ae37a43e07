package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapDBError_NilError(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBError_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "pgx no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{name: "sql no rows", err: fmt.Errorf("scan: %w", sql.ErrNoRows), wantCode: ErrCodeNotFound},
		{
			name: "unique violation with detail",
			err: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (username)=(alice) already exists.",
			},
			wantCode:  ErrCodeConflict,
			wantField: "username",
		},
		{
			name:      "unique violation on known constraint",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_unique"},
			wantCode:  ErrCodeConflict,
			wantField: "username",
		},
		{
			name:     "foreign key violation",
			err:      &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "pre_synthesis_answers_user_id_fkey"},
			wantCode: ErrCodeForeignKey,
		},
		{
			name:      "not null violation",
			err:       &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "answer_text"},
			wantCode:  ErrCodeValidation,
			wantField: "answer_text",
		},
		{
			name:      "check violation",
			err:       &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "pre_synthesis_answers_status_check"},
			wantCode:  ErrCodeValidation,
			wantField: "status",
		},
		{
			name:     "unknown check constraint",
			err:      &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "something_else"},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "statement timeout",
			err:      &pgconn.PgError{Code: pgerrcode.QueryCanceled},
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "NUL byte in text",
			err:      &pgconn.PgError{Code: pgerrcode.CharacterNotInRepertoire},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "untranslatable character",
			err:      &pgconn.PgError{Code: pgerrcode.UntranslatableCharacter},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "row security denial",
			err:      &pgconn.PgError{Code: pgerrcode.InsufficientPrivilege},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "too many connections",
			err:      &pgconn.PgError{Code: pgerrcode.TooManyConnections},
			wantCode: ErrCodeResourceUnavailable,
		},
		{
			name:     "unknown pg error",
			err:      &pgconn.PgError{Code: pgerrcode.DiskFull},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(tt.err)
			assert.Equal(t, tt.wantCode, GetCode(got))
			assert.Equal(t, tt.wantField, GetField(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestMapDBError_StandardErrorPassesThrough(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, MapDBError(plain))
}

func TestMapDBError_KnownConstraintMessages(t *testing.T) {
	got := MapDBError(&pgconn.PgError{
		Code:           pgerrcode.CheckViolation,
		ConstraintName: "pre_synthesis_answers_question_id_check",
	})
	assert.Equal(t, "question_id", GetField(got))
	assert.Equal(t, "question_id must be a positive integer.", PublicMessage(got))
}

func TestMapForeignKeyViolation_DetailMessages(t *testing.T) {
	missing := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (user_id)=(u-1) is not present in table "users".`,
	})
	assert.Equal(t, "The referenced user does not exist.", PublicMessage(missing))

	other := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (id)=(1) is still referenced from table "pre_synthesis_answers".`,
	})
	assert.Equal(t, "Cannot complete operation because this item is in use.", PublicMessage(other))
}
