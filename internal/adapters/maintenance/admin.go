package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/validation"
)

// OpenDB opens the full-access pool. The role behind DATABASE_URL_FULL bypasses row security.
func OpenDB(ctx context.Context, cfg config.FullAccessDatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL_FULL is required")
	}
	return rls.Open(ctx, rls.OpenConfig{
		URL:          cfg.URL,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: 1,
		Logger:       logger,
	})
}

// bcrypt rejects longer inputs.
const maxPasswordBytes = 72

// UserInserter stores new accounts.
type UserInserter interface {
	InsertUser(ctx context.Context, username, passwordHash string) (*model.User, error)
}

// AdminOptions groups dependencies for Admin.
type AdminOptions struct {
	Users  UserInserter
	Logger *slog.Logger
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Admin exposes full-access operations for the admin CLI.
type Admin struct {
	users     UserInserter
	validator *validation.Validator
	logger    *slog.Logger
	cost      int
}

// NewAdmin constructs an Admin.
func NewAdmin(opts AdminOptions) (*Admin, error) {
	if opts.Users == nil {
		return nil, errors.New("user store is required")
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{
		users:     opts.Users,
		validator: validation.New(),
		logger:    logger.With("component", "maintenance_admin"),
		cost:      cost,
	}, nil
}

// CreateUser validates req, hashes the password and stores the account.
func (a *Admin) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if err := a.validator.Struct(req); err != nil {
		return nil, err
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, apperrors.ValidationField("password", "password cannot exceed 72 bytes.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}
	u, err := a.users.InsertUser(ctx, req.Username, string(hash))
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "user created", "user_id", u.ID, "username", u.Username)
	return u, nil
}
