package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository/memory"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(memory.NewUserRepository(), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "operator", user.Role)
	assert.Empty(t, user.Password)

	resp, err := auth.Login(ctx, domain.LoginUserDTO{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "operator", resp.Role)

	claims, err := auth.ValidateToken(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, "operator", claims["role"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)
	_, err = auth.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)

	_, err = auth.Login(ctx, domain.LoginUserDTO{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, domain.LoginUserDTO{Username: "nobody", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbageAndForeignSignatures(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = auth.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)
	resp, err := auth.Login(ctx, domain.LoginUserDTO{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)

	other := NewAuthService(memory.NewUserRepository(), "different-secret", time.Hour)
	_, err = other.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	auth := NewAuthService(memory.NewUserRepository(), "test-secret", -time.Minute)
	ctx := context.Background()

	_, err := auth.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)
	resp, err := auth.Login(ctx, domain.LoginUserDTO{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)

	_, err = auth.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
