// Package auth contains domain-level types for authentication.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// maxUserIDLength bounds identifiers carried in internal URLs and session settings.
const maxUserIDLength = 128

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)

// ErrInvalidUserID is returned when an identity cannot be used as a row-security principal.
var ErrInvalidUserID = errors.New("invalid user id")

// Identity is the authenticated principal carried from the gateway to the engine.
// UserID is stable for the lifetime of a request chain.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// Validate reports whether the identity can be used to scope database access.
func (i Identity) Validate() error {
	return ValidateUserID(i.UserID)
}

// ValidateUserID checks that id is non-empty, bounded and limited to URL and setting safe characters.
func ValidateUserID(id string) error {
	if id == "" || len(id) > maxUserIDLength || !userIDPattern.MatchString(id) {
		return ErrInvalidUserID
	}
	return nil
}

// Credentials are the username and password submitted at login.
type Credentials struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=256"`
}

// Normalize trims the username; passwords are compared verbatim.
func (c Credentials) Normalize() Credentials {
	c.Username = strings.TrimSpace(c.Username)
	return c
}

// AccessToken is the bearer token response returned by the gateway login route.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	Identity  Identity
	TokenID   string
	ExpiresAt time.Time
}

// BearerTokenType is the token_type reported by the login route.
const BearerTokenType = "bearer"
