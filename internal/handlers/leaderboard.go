package handlers

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/leaderboard"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// LeaderboardHandler serves ranked leaderboard pages.
type LeaderboardHandler struct {
	ranker *leaderboard.Ranker
	logger *logrus.Logger
}

// NewLeaderboardHandler creates a leaderboard handler.
func NewLeaderboardHandler(ranker *leaderboard.Ranker, logger *logrus.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		ranker: ranker,
		logger: logger,
	}
}

// Action implements router.Handler.
func (h *LeaderboardHandler) Action(name string) http.HandlerFunc {
	switch name {
	case "page":
		return h.Page
	default:
		return nil
	}
}

// Page handles GET /leaderboards/global. Query parameters: seasonId,
// region, limit, offset. Non-numeric limit or offset values are rejected.
func (h *LeaderboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	seasonID := query.Get("seasonId")
	if seasonID == "" {
		// Legacy alias.
		seasonID = query.Get("season")
	}

	limit, err := queryInt(query.Get("limit"), 0)
	if err != nil {
		writeError(w, h.logger, models.NewValidationError("limit must be an integer"))
		return
	}

	offset, err := queryInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, h.logger, models.NewValidationError("offset must be an integer"))
		return
	}

	page, err := h.ranker.GetPage(r.Context(), seasonID, query.Get("region"), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, page)
}

func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
