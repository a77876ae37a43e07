package httpx

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// Authenticator verifies a bearer token and returns its claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domainauth.TokenClaims, error)
}

const credentialsMessage = "Could not validate credentials"

// RequireBearer rejects requests without a valid bearer token and stores the
// verified claims in the request context.
func RequireBearer(auth Authenticator, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteAppError(w, r, logger, apperrors.Authentication(credentialsMessage))
				return
			}
			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				WriteAppError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetClaimsInContext(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireInternalSecret rejects requests whose header does not carry the shared secret.
// An empty secret rejects everything.
func RequireInternalSecret(header, secret string, logger *slog.Logger) Middleware {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(header))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				logger.WarnContext(r.Context(), "internal request rejected",
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
				)
				WriteAppError(w, r, logger, apperrors.Authentication("Invalid internal credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
