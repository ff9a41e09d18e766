package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/repository/repositorytest"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

func newAuthService(store *repositorytest.Store) *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 20,
			BcryptCost:            bcrypt.MinCost,
		},
	}
	return NewAuthService(cfg, store.Users())
}

func TestAuthService_RegisterStoresHashOnly(t *testing.T) {
	store := repositorytest.NewStore()
	svc := newAuthService(store)

	user, err := svc.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "s3cret")
}

func TestAuthService_RegisterDuplicateUsernameConflicts(t *testing.T) {
	store := repositorytest.NewStore()
	svc := newAuthService(store)

	_, err := svc.Register(context.Background(), "alice", "one")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "two")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", domainErr.Code)
	assert.Equal(t, 409, domainErr.HTTPStatus)
}

func TestAuthService_AuthenticateAmbiguousOnFailure(t *testing.T) {
	store := repositorytest.NewStore()
	svc := newAuthService(store)

	_, err := svc.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	// unknown username and wrong password look identical
	unknown, err := svc.Authenticate(context.Background(), "nobody", "whatever")
	require.NoError(t, err)
	wrongPass, err := svc.Authenticate(context.Background(), "alice", "wrong")
	require.NoError(t, err)
	assert.Nil(t, unknown)
	assert.Nil(t, wrongPass)
}

func TestAuthService_AuthenticateAndIssueToken(t *testing.T) {
	store := repositorytest.NewStore()
	svc := newAuthService(store)

	registered, err := svc.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, registered.ID, user.ID)

	token, _, err := svc.IssueToken(user)
	require.NoError(t, err)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, user.ID, claims.UserID)
}
