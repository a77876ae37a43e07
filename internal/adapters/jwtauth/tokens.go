// Package jwtauth issues and verifies the gateway's HMAC-signed bearer tokens.
package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/ports"
)

// ErrInvalidToken is the public failure for any unusable bearer token.
var ErrInvalidToken = apperrors.Authentication("Could not validate credentials")

var (
	_ ports.TokenIssuer   = (*Manager)(nil)
	_ ports.TokenVerifier = (*Manager)(nil)
)

// Options configures a Manager.
type Options struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
	Issuer    string
	Now       func() time.Time
}

// claims is the token body. sub carries the user id.
type claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies access tokens with one HMAC key.
type Manager struct {
	key    []byte
	method jwt.SigningMethod
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// New constructs a Manager. Only HS256, HS384 and HS512 are accepted.
func New(opts Options) (*Manager, error) {
	if opts.Secret == "" {
		return nil, errors.New("jwtauth: secret is required")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(opts.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("jwtauth: unsupported algorithm %q", opts.Algorithm)
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(opts.Now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	return &Manager{
		key:    []byte(opts.Secret),
		method: method,
		ttl:    opts.TTL,
		issuer: opts.Issuer,
		now:    opts.Now,
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(opts Options) *Manager {
	m, err := New(opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Issue signs a token for id that expires after the configured TTL.
func (m *Manager) Issue(id domainauth.Identity) (domainauth.AccessToken, domainauth.TokenClaims, error) {
	if err := id.Validate(); err != nil {
		return domainauth.AccessToken{}, domainauth.TokenClaims{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "issue token")
	}
	now := m.now()
	exp := now.Add(m.ttl)
	c := claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(m.method, c).SignedString(m.key)
	if err != nil {
		return domainauth.AccessToken{}, domainauth.TokenClaims{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "sign token")
	}
	return domainauth.AccessToken{AccessToken: signed, TokenType: domainauth.BearerTokenType},
		domainauth.TokenClaims{Identity: id, TokenID: c.ID, ExpiresAt: exp.Truncate(time.Second)},
		nil
}

// Verify checks the signature, algorithm, expiry and issuer of token.
func (m *Manager) Verify(token string) (domainauth.TokenClaims, error) {
	var c claims
	parsed, err := m.parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.key, nil
	})
	if err != nil || !parsed.Valid {
		return domainauth.TokenClaims{}, ErrInvalidToken
	}
	id := domainauth.Identity{UserID: c.Subject, Username: c.Username}
	if id.Validate() != nil {
		return domainauth.TokenClaims{}, ErrInvalidToken
	}
	out := domainauth.TokenClaims{Identity: id, TokenID: c.ID}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}
