package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/brawl"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/repository"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/router"
)

const (
	// MaxSearchResults caps a single player search response.
	MaxSearchResults = 50
	// MinSearchQueryLength is the shortest accepted search query.
	MinSearchQueryLength = 2
)

// PlayerHandler serves player profiles, search, and account linking.
type PlayerHandler struct {
	players repository.PlayerRepository
	users   repository.UserRepository
	brawl   *brawl.Client
	logger  *logrus.Logger
}

// NewPlayerHandler creates a player handler.
func NewPlayerHandler(
	players repository.PlayerRepository,
	users repository.UserRepository,
	brawlClient *brawl.Client,
	logger *logrus.Logger,
) *PlayerHandler {
	return &PlayerHandler{
		players: players,
		users:   users,
		brawl:   brawlClient,
		logger:  logger,
	}
}

// Action implements router.Handler.
func (h *PlayerHandler) Action(name string) http.HandlerFunc {
	switch name {
	case "get":
		return h.Get
	case "search":
		return h.Search
	case "link":
		return h.Link
	default:
		return nil
	}
}

// Get handles GET /players/:playerId.
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID := router.Param(r, "playerId")

	player, err := h.players.GetByID(r.Context(), playerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, player)
}

// Search handles GET /players/search?q=. The query must be at least two
// characters to keep ILIKE scans bounded.
func (h *PlayerHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < MinSearchQueryLength {
		writeError(w, h.logger, models.NewValidationError("query parameter q must be at least 2 characters"))
		return
	}

	players, err := h.players.Search(r.Context(), query, MaxSearchResults)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, players)
}

// Link handles POST /players/link. It requires authentication and
// verifies the tag against the Brawl Stars API before recording it. An
// unreachable API does not block linking; a confirmed unknown tag does.
func (h *PlayerHandler) Link(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, h.logger, models.NewAuthError("authentication required"))
		return
	}

	var req models.LinkAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tag := strings.TrimSpace(req.BrawlStarsPlayerID)
	if tag == "" {
		writeError(w, h.logger, models.NewValidationError("brawlStarsPlayerId is required"))
		return
	}

	if err := h.brawl.VerifyPlayer(r.Context(), tag); err != nil {
		if errors.Is(err, brawl.ErrAPIUnavailable) {
			h.logger.WithError(err).WithField("tag", tag).
				Warn("Brawl Stars API unavailable, linking without verification")
		} else {
			writeError(w, h.logger, err)
			return
		}
	}

	if err := h.users.LinkBrawlAccount(r.Context(), claims.UserID, tag); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, user)
}
