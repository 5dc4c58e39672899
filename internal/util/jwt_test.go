package util

import (
	"testing"
	"time"

	"github.com/wyattbui/toeic-app-mimi-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-0123456789abcdef"

func testUser() *model.User {
	u := &model.User{
		Email: "user@example.com",
		Name:  "Test User",
		Role:  model.RoleUser,
	}
	u.ID = 7
	return u
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "some-other-secret-0123456789abcdef")
	assert.Error(t, err)
}

func TestParseJWTExpired(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, testSecret)
	assert.Error(t, err)
}

// A rejected token must never come back as (nil, nil).
func TestParseJWTRejectionsCarryAnError(t *testing.T) {
	good, err := GenerateJWT(testUser(), testSecret, time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", good + "tampered"} {
		claims, err := ParseJWT(token, testSecret)
		assert.Error(t, err, "token %q", token)
		assert.Nil(t, claims, "token %q", token)
	}
}
