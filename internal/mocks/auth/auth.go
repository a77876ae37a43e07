// Package auth contains simple hand-written test doubles for the gateway's auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenIssuer         = (*StaticTokens)(nil)
	_ ports.TokenVerifier       = (*StaticTokens)(nil)
	_ ports.RevocationStore     = (*MemoryRevocationStore)(nil)
	_ ports.CredentialValidator = (*StaticCredentials)(nil)
)

// tokenPrefix marks tokens minted by StaticTokens; the rest of the token is the user id.
const tokenPrefix = "test-token:"

// StaticTokens issues readable, unsigned tokens of the form "test-token:<user id>".
type StaticTokens struct {
	TTL time.Duration
	Now func() time.Time
}

func (s *StaticTokens) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// TokenFor returns the bearer token StaticTokens accepts for userID.
func TokenFor(userID string) string { return tokenPrefix + userID }

func (s *StaticTokens) Issue(id domainauth.Identity) (domainauth.AccessToken, domainauth.TokenClaims, error) {
	if err := id.Validate(); err != nil {
		return domainauth.AccessToken{}, domainauth.TokenClaims{}, err
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return domainauth.AccessToken{AccessToken: TokenFor(id.UserID), TokenType: domainauth.BearerTokenType},
		domainauth.TokenClaims{Identity: id, TokenID: "jti-" + id.UserID, ExpiresAt: s.now().Add(ttl)},
		nil
}

func (s *StaticTokens) Verify(token string) (domainauth.TokenClaims, error) {
	userID, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok || domainauth.ValidateUserID(userID) != nil {
		return domainauth.TokenClaims{}, apperrors.Authentication("Could not validate credentials")
	}
	return domainauth.TokenClaims{
		Identity:  domainauth.Identity{UserID: userID},
		TokenID:   "jti-" + userID,
		ExpiresAt: s.now().Add(time.Hour),
	}, nil
}

// MemoryRevocationStore is an in-memory revocation store for unit tests.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryRevocationStore creates an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time)}
}

func (m *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	if tokenID == "" {
		return errors.New("token id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = until
	return nil
}

func (m *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[tokenID]
	return ok && time.Now().Before(until), nil
}

// StaticCredentials accepts a fixed set of username/password pairs.
type StaticCredentials struct {
	// Users maps username to password and identity.
	Users map[string]StaticUser
	// Err, when set, is returned by every call.
	Err error
}

// StaticUser is one account known to StaticCredentials.
type StaticUser struct {
	Password string
	Identity domainauth.Identity
}

func (s *StaticCredentials) ValidateCredentials(_ context.Context, creds domainauth.Credentials, _ string) (domainauth.Identity, error) {
	if s.Err != nil {
		return domainauth.Identity{}, s.Err
	}
	u, ok := s.Users[creds.Username]
	if !ok || u.Password != creds.Password {
		return domainauth.Identity{}, apperrors.Authentication("Invalid credentials")
	}
	return u.Identity, nil
}
