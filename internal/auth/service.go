package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/repository"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/token"
)

var (
	// ErrEmailTaken is returned when registering an already used email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidCredentials is returned on login with a wrong email or
	// password. Both cases map to the same error so responses do not
	// reveal which part was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when the refresh token is
	// missing, malformed, expired, or of the wrong type.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Service implements registration, login, and token refresh.
type Service struct {
	users  repository.UserRepository
	tokens *token.Service
	expiry time.Duration
	logger *logrus.Logger
}

// NewService creates an auth service.
func NewService(users repository.UserRepository, tokens *token.Service, cfg *config.JWTConfig, logger *logrus.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		expiry: cfg.AccessTokenExpiry,
		logger: logger,
	}
}

// Register creates a new account and returns the user with a fresh token
// pair. Email comparison is case-insensitive.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Nickname:     strings.TrimSpace(req.Nickname),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return s.issueTokens(user)
}

// Login verifies credentials and returns the user with a fresh token pair.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if claims.Type != token.TypeRefresh || s.tokens.IsExpired(claims) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return s.issueTokens(user)
}

func (s *Service) issueTokens(user *models.User) (*models.AuthResponse, error) {
	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &models.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.expiry.Seconds()),
	}, nil
}
