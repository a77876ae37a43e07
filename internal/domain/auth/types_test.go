package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUserID(t *testing.T) {
	valid := []string{"u-123", "0b7d7f8e-55a4-4a35-9a0e-0f2c8b1f7a11", "alice@example.com", "svc_user.1"}
	for _, id := range valid {
		assert.NoError(t, ValidateUserID(id), id)
	}

	invalid := []string{"", "a/b", "u 1", "x'; DROP TABLE users;--", strings.Repeat("a", maxUserIDLength+1)}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateUserID(id), ErrInvalidUserID, id)
	}
}

func TestIdentity_Validate(t *testing.T) {
	assert.NoError(t, Identity{UserID: "u-123"}.Validate())
	assert.Error(t, Identity{Username: "alice"}.Validate())
}

func TestCredentials_Normalize(t *testing.T) {
	c := Credentials{Username: "  alice ", Password: " pw "}.Normalize()
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, " pw ", c.Password)
}
