// Package token provides JWT issuing and verification for the leaderboard
// API. Access and refresh tokens are HMAC-signed JWTs carrying the user id,
// email, and nickname.
//
// Verification is deliberately split in two: Verify checks only the
// signature and structure, and IsExpired is a separate step the auth
// boundary calls afterwards so expired tokens can be reported distinctly
// from tampered ones.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// ErrInvalidToken is returned by Verify for a bad signature or malformed
// token structure.
var ErrInvalidToken = errors.New("invalid token")

// TokenType distinguishes access from refresh tokens in the claim set.
type TokenType string

const (
	// TypeAccess marks short-lived access tokens.
	TypeAccess TokenType = "access"
	// TypeRefresh marks long-lived refresh tokens.
	TypeRefresh TokenType = "refresh"
)

// Claims is the claim set embedded in every issued token.
type Claims struct {
	jwt.RegisteredClaims

	// UserID identifies the authenticated user.
	UserID string `json:"userId"`
	// Email is the user's email address.
	Email string `json:"email"`
	// Nickname is the user's display name.
	Nickname string `json:"nickname"`
	// Type identifies the token type (access or refresh).
	Type TokenType `json:"type"`
}

// Service issues and verifies signed tokens using a symmetric secret.
type Service struct {
	config *config.JWTConfig
	parser *jwt.Parser
}

// NewService creates a token service. It fails fast if the signing secret
// is empty.
func NewService(cfg *config.JWTConfig) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token service requires a non-empty signing secret")
	}

	// Expiry is checked by IsExpired, never during signature verification.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{cfg.Algorithm}),
		jwt.WithoutClaimsValidation(),
	)

	return &Service{config: cfg, parser: parser}, nil
}

// IssueAccessToken signs an access token for the user, stamped with the
// configured access token lifetime.
func (s *Service) IssueAccessToken(user *models.User) (string, error) {
	return s.issue(user, TypeAccess, s.config.AccessTokenExpiry)
}

// IssueRefreshToken signs a refresh token for the user, stamped with the
// configured refresh token lifetime.
func (s *Service) IssueRefreshToken(user *models.User) (string, error) {
	return s.issue(user, TypeRefresh, s.config.RefreshTokenExpiry)
}

func (s *Service) issue(user *models.User, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.GetSigningMethod(s.config.Algorithm), claims).
		SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify decodes the token and checks its signature and structure. The
// claim set is returned even when the token has already expired; callers
// must call IsExpired as a distinct step.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := s.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IsExpired reports whether the claim set's expiry has passed.
func (s *Service) IsExpired(claims *Claims) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return time.Now().After(claims.ExpiresAt.Time)
}
