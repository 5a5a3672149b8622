package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/repository"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/token"
)

const jwtSecret = "test-secret-key-that-is-long-enough-for-validation"

func jwtConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:             jwtSecret,
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "test",
		Algorithm:          "HS256",
	}
}

func newTestService(t *testing.T) (*Service, *repository.MemoryUserRepository) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := repository.NewMemoryUserRepository()
	tokens, err := token.NewService(jwtConfig())
	require.NoError(t, err)

	return NewService(users, tokens, jwtConfig(), log), users
}

func registerRequest() *models.RegisterRequest {
	return &models.RegisterRequest{
		Email:    "player@example.com",
		Password: "supersecret",
		Nickname: "Player One",
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("supersecret")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", hash)

	assert.NoError(t, VerifyPassword(hash, "supersecret"))
	assert.Error(t, VerifyPassword(hash, "wrong"))
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestRegister_Success(t *testing.T) {
	service, _ := newTestService(t)

	resp, err := service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "player@example.com", resp.User.Email)
	assert.Equal(t, "Player One", resp.User.Nickname)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Email = "PLAYER@example.com"
	_, err = service.Register(ctx, req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_Success(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	resp, err := service.Login(ctx, &models.LoginRequest{
		Email:    "player@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = service.Login(ctx, &models.LoginRequest{
		Email:    "player@example.com",
		Password: "wrongpassword",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Login(context.Background(), &models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "supersecret",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_Success(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	refreshed, err := service.Refresh(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = service.Refresh(ctx, registered.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_GarbageRejected(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_UnknownUserRejected(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	// A service backed by an empty repository does not know the user.
	fresh, _ := newTestService(t)
	_, err = fresh.Refresh(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
