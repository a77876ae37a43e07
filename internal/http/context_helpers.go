package httpx

import (
	"context"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
)

// claimsKey and requestIDKey are unexported context key types to avoid collisions across packages.
type (
	claimsKey    struct{}
	requestIDKey struct{}
)

// SetClaimsInContext returns a child context that carries verified token claims.
func SetClaimsInContext(ctx context.Context, claims domainauth.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the verified claims placed by RequireBearer.
func ClaimsFromContext(ctx context.Context) (domainauth.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(domainauth.TokenClaims)
	return claims, ok
}

// IdentityFromContext returns the verified identity of the caller, if any.
func IdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return domainauth.Identity{}, false
	}
	return claims.Identity, true
}

func setRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id assigned by the RequestID middleware, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
