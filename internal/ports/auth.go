// Package ports defines interfaces (hexagonal ports) for the gateway's auth and engine-facing behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
)

// TokenIssuer signs access tokens for authenticated identities.
type TokenIssuer interface {
	Issue(id domainauth.Identity) (domainauth.AccessToken, domainauth.TokenClaims, error)
}

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (domainauth.TokenClaims, error)
}

// CredentialValidator checks a username and password and returns the matching identity.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, creds domainauth.Credentials, requestID string) (domainauth.Identity, error)
}

// RevocationStore remembers tokens that were logged out before they expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// EngineRequest is one call to the Cognitive Engine. An empty UserID selects an identity-free route.
type EngineRequest struct {
	Method    string
	UserID    string
	Route     string
	Payload   any
	Query     url.Values
	RequestID string
}

// EngineForwarder relays a request to the engine and returns its JSON body.
type EngineForwarder interface {
	Forward(ctx context.Context, req EngineRequest) (json.RawMessage, error)
}
