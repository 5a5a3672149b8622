// Package handlers implements the HTTP request handlers registered with
// the router, along with the route-scoped authentication middleware.
// Every response uses the common success/error envelope, and all error
// to status mapping happens here at the response boundary.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/auth"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/brawl"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/constants"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/leaderboard"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/repository"
)

// writeJSON writes a success envelope with the given status code.
func writeJSON(w http.ResponseWriter, logger *logrus.Logger, status int, data any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(models.NewSuccessResponse(data)); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps a domain error to its HTTP status and writes the error
// envelope. Unclassified errors become opaque 500s; their details are
// logged, never sent to the client.
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	apiErr := classifyError(err)

	if apiErr.StatusCode >= http.StatusInternalServerError {
		logger.WithError(err).Error("Request failed")
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(apiErr.StatusCode)

	if encodeErr := json.NewEncoder(w).Encode(models.NewErrorResponse(apiErr.Message, apiErr.StatusCode)); encodeErr != nil {
		logger.WithError(encodeErr).Error("Failed to encode error response")
	}
}

func classifyError(err error) *models.APIError {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var validationErrs models.ValidationErrors
	if errors.As(err, &validationErrs) {
		return models.NewValidationError(validationErrs.Error())
	}

	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		return models.NewValidationError(err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidRefreshToken):
		return models.NewAuthError(err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return models.NewNotFoundError("resource not found")
	case errors.Is(err, leaderboard.ErrSeasonRequired):
		return models.NewValidationError(err.Error())
	case errors.Is(err, brawl.ErrPlayerNotFound):
		return models.NewValidationError("brawl stars player does not exist")
	default:
		return models.NewServerError("internal server error")
	}
}

// decodeBody decodes a JSON request body into dst, returning a
// validation error for malformed payloads.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewValidationError("request body is not valid JSON")
	}
	return nil
}
