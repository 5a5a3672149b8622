package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/auth"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// AuthHandler serves registration, login, and token refresh.
type AuthHandler struct {
	service *auth.Service
	logger  *logrus.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *auth.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Action implements router.Handler.
func (h *AuthHandler) Action(name string) http.HandlerFunc {
	switch name {
	case "register":
		return h.Register
	case "login":
		return h.Login
	case "refresh":
		return h.Refresh
	default:
		return nil
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if errs := req.Validate(); errs.HasErrors() {
		writeError(w, h.logger, errs)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, resp)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if errs := req.Validate(); errs.HasErrors() {
		writeError(w, h.logger, errs)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if req.RefreshToken == "" {
		writeError(w, h.logger, models.NewValidationError("refreshToken is required"))
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}
