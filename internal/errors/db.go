package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// reKeyField extracts the column from "Key (field)=(value) already exists.".
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// reNotPresent extracts the parent table from "... is not present in table ...".
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

type constraintInfo struct {
	field   string
	message string
}

// knownConstraints names the schema's constraints so violations surface with a
// field and a message instead of a generic database error.
var knownConstraints = map[string]constraintInfo{
	"users_username_unique": {field: "username", message: "Username is already taken."},
	"users_id_format":       {field: "id", message: "User id has an invalid format."},

	"pre_synthesis_answers_user_id_fkey":      {message: "The referenced user does not exist."},
	"pre_synthesis_answers_question_id_check": {field: "question_id", message: "question_id must be a positive integer."},
	"pre_synthesis_answers_answer_text_check": {field: "answer_text", message: "answer_text must be between 1 and 1024 characters."},
	"pre_synthesis_answers_status_check":      {field: "status", message: "Invalid answer status."},

	"synthesis_reports_user_id_fkey": {message: "The referenced user does not exist."},
}

var tableNouns = map[string]string{
	"users":                 "user",
	"pre_synthesis_answers": "answer",
	"synthesis_reports":     "synthesis report",
}

// MapDBError maps database errors to AppError instances:
//
//   - context deadline / statement timeout → Timeout
//   - context cancellation → Canceled
//   - no rows → NotFound
//   - unique → Conflict, foreign key → ForeignKey, check / not null → Validation
//   - row security denial → NotFound (rows of other users do not exist to the caller)
//   - connection exhaustion or server shutdown → ResourceUnavailable
//
// Errors that are not database errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return constraintError(pgErr, ErrCodeConflict, "This value already exists. Please choose a different one.")
	case pgerrcode.ForeignKeyViolation:
		return constraintError(pgErr, ErrCodeForeignKey, foreignKeyMessage(pgErr))
	case pgerrcode.CheckViolation:
		return constraintError(pgErr, ErrCodeValidation, "Invalid data. Please check your input.")
	case pgerrcode.NotNullViolation:
		return constraintError(pgErr, ErrCodeValidation, "Required field is missing. Please check your input.")
	case pgerrcode.CharacterNotInRepertoire, pgerrcode.UntranslatableCharacter:
		return &AppError{Code: ErrCodeValidation, Message: "Text contains characters that cannot be stored.", Cause: pgErr}
	case pgerrcode.InsufficientPrivilege:
		// RLS WITH CHECK failures surface as insufficient_privilege.
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: pgErr}
	case pgerrcode.QueryCanceled:
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: pgErr}
	case pgerrcode.TooManyConnections, pgerrcode.CannotConnectNow,
		pgerrcode.AdminShutdown, pgerrcode.CrashShutdown:
		return &AppError{Code: ErrCodeResourceUnavailable, Message: "Database is busy. Please try again.", Cause: pgErr}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "A database error occurred. Please try again.", Cause: pgErr}
	}
}

// constraintError prefers the schema's own description of the constraint, then
// the column reported by the server.
func constraintError(pgErr *pgconn.PgError, code ErrorCode, fallback string) error {
	if info, ok := knownConstraints[pgErr.ConstraintName]; ok {
		return &AppError{Code: code, Message: info.message, Field: info.field, Cause: pgErr}
	}

	field := pgErr.ColumnName
	if field == "" && code == ErrCodeConflict {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
	}
	return &AppError{Code: code, Message: fallback, Field: field, Cause: pgErr}
}

func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		if noun, ok := tableNouns[m[1]]; ok {
			return "The referenced " + noun + " does not exist."
		}
	}
	return "Cannot complete operation because this item is in use."
}
