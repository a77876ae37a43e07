package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

func TestStaticTokens_RoundTrip(t *testing.T) {
	tokens := &StaticTokens{}
	tok, claims, err := tokens.Issue(domainauth.Identity{UserID: "u-123"})
	require.NoError(t, err)
	assert.Equal(t, "test-token:u-123", tok.AccessToken)
	assert.Equal(t, "jti-u-123", claims.TokenID)

	got, err := tokens.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-123", got.Identity.UserID)

	_, err = tokens.Verify("Bearer nope")
	assert.True(t, apperrors.IsAuthentication(err))
}

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "a", time.Now().Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "b", time.Now().Add(-time.Minute)))

	revoked, err := store.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.Error(t, store.Revoke(ctx, "", time.Now()))
}

func TestStaticCredentials(t *testing.T) {
	creds := &StaticCredentials{Users: map[string]StaticUser{
		"alice": {Password: "hunter22", Identity: domainauth.Identity{UserID: "u-123", Username: "alice"}},
	}}

	id, err := creds.ValidateCredentials(context.Background(), domainauth.Credentials{Username: "alice", Password: "hunter22"}, "")
	require.NoError(t, err)
	assert.Equal(t, "u-123", id.UserID)

	_, err = creds.ValidateCredentials(context.Background(), domainauth.Credentials{Username: "alice", Password: "x"}, "")
	assert.True(t, apperrors.IsAuthentication(err))
}
