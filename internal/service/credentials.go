package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/lifebuddy/lifebuddy-api/internal/core"
	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/validation"
)

// InvalidCredentialsMessage is the only message a failed login ever returns.
const InvalidCredentialsMessage = "Invalid credentials"

// timingHash is compared against when the username is unknown so both paths cost one bcrypt check.
var timingHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("lifebuddy-timing-equalizer"), bcrypt.DefaultCost)
	return h
})

// CredentialServiceOptions groups dependencies for CredentialService.
type CredentialServiceOptions struct {
	Scopes core.ScopeRunner    // Required: RLS scope runner
	Users  core.UserRepository // Required: user repository
	Logger *slog.Logger        // Optional: structured logger
}

// CredentialService verifies usernames and passwords for the gateway's login route.
type CredentialService struct {
	scopes   core.ScopeRunner
	users    core.UserRepository
	validate *validation.Validator
	logger   *slog.Logger
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(opts CredentialServiceOptions) (*CredentialService, error) {
	if opts.Scopes == nil {
		return nil, errors.New("ScopeRunner is required")
	}
	if opts.Users == nil {
		return nil, errors.New("UserRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialService{
		scopes:   opts.Scopes,
		users:    opts.Users,
		validate: validation.New(),
		logger:   logger.With("component", "credential_service"),
	}, nil
}

// Validate returns the identity for creds. Unknown users and wrong passwords
// are indistinguishable to the caller.
func (s *CredentialService) Validate(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
	creds = creds.Normalize()
	if err := s.validate.Struct(creds); err != nil {
		return domainauth.Identity{}, err
	}

	var user *model.User
	err := s.scopes.WithAnonymousScope(ctx, func(ctx context.Context, sess *rls.AnonymousSession) error {
		u, err := s.users.LookupCredentials(ctx, sess, creds.Username)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	switch {
	case apperrors.IsNotFound(err):
		_ = bcrypt.CompareHashAndPassword(timingHash(), []byte(creds.Password))
		return domainauth.Identity{}, apperrors.Authentication(InvalidCredentialsMessage)
	case err != nil:
		s.logger.ErrorContext(ctx, "credential lookup failed", "error", err)
		return domainauth.Identity{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return domainauth.Identity{}, apperrors.Authentication(InvalidCredentialsMessage)
	}
	return domainauth.Identity{UserID: user.ID, Username: user.Username}, nil
}
