package data

import apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"

// Shared sentinel errors for data-layer repositories. They are AppErrors so
// callers outside this package can classify them with the IsX helpers.
var (
	// ErrAnswerNotFound is returned when an answer is absent or hidden by row security.
	ErrAnswerNotFound = apperrors.NotFound("Answer not found")
	// ErrUserNotFound is returned when no account matches a username.
	ErrUserNotFound = apperrors.NotFound("User not found")
	// ErrInvalidStatus is returned when an answer status transition is not allowed.
	ErrInvalidStatus = apperrors.Validation("invalid answer status transition")
)
