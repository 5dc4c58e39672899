package service

import (
	"testing"
	"time"

	"github.com/wyattbui/toeic-app-mimi-service/internal/config"
	"github.com/wyattbui/toeic-app-mimi-service/internal/model"
	"github.com/wyattbui/toeic-app-mimi-service/internal/repository"
	"github.com/wyattbui/toeic-app-mimi-service/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	db := setupTestDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "auth-service-test-secret-0123456789"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.Register(SignupReq{
		Email:    "new@example.com",
		Password: "secret123",
		Name:     "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")

	result, err := svc.Login(LoginReq{Email: "new@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	claims, err := util.ParseJWT(result.Token, svc.Config.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "new@example.com", claims.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)

	req := SignupReq{Email: "dup@example.com", Password: "secret123", Name: "A"}
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(SignupReq{Email: "known@example.com", Password: "secret123", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Login(LoginReq{Email: "known@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login(LoginReq{Email: "unknown@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}
