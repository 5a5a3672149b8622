package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/constants"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/token"
)

type claimsKey struct{}

// ClaimsFromContext returns the token claims stored by AuthMiddleware,
// or nil when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*token.Claims)
	return claims
}

// AuthMiddleware is route-scoped middleware that requires a valid,
// unexpired bearer access token. On success the verified claims are
// attached to the request context.
type AuthMiddleware struct {
	tokens *token.Service
	logger *logrus.Logger
}

// NewAuthMiddleware creates the authentication middleware.
func NewAuthMiddleware(tokens *token.Service, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// Handle implements router.Middleware.
func (m *AuthMiddleware) Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		m.reject(w, "Token not provided")
		return nil, false
	}

	if !strings.HasPrefix(authHeader, constants.BearerPrefix) {
		m.reject(w, "Invalid token format")
		return nil, false
	}

	tokenString := strings.TrimPrefix(authHeader, constants.BearerPrefix)
	claims, err := m.tokens.Verify(tokenString)
	if err != nil {
		m.reject(w, "Invalid token: "+err.Error())
		return nil, false
	}

	if claims.Type != token.TypeAccess {
		m.reject(w, "Invalid token: not an access token")
		return nil, false
	}

	if m.tokens.IsExpired(claims) {
		m.reject(w, "Token expired")
		return nil, false
	}

	ctx := context.WithValue(r.Context(), claimsKey{}, claims)
	return r.WithContext(ctx), true
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, message string) {
	apiErr := models.NewAuthError(message)

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(apiErr.StatusCode)

	if err := json.NewEncoder(w).Encode(models.NewErrorResponse(apiErr.Message, apiErr.StatusCode)); err != nil {
		m.logger.WithError(err).Error("Failed to encode error response")
	}
}
