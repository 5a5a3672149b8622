package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/leaderboard"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/repository"
)

// ScoreHandler serves score submission. Every successful upsert flushes
// the cached leaderboard pages so the next read reflects the new totals.
type ScoreHandler struct {
	scores  repository.ScoreRepository
	players repository.PlayerRepository
	seasons repository.SeasonRepository
	ranker  *leaderboard.Ranker
	logger  *logrus.Logger
}

// NewScoreHandler creates a score handler.
func NewScoreHandler(
	scores repository.ScoreRepository,
	players repository.PlayerRepository,
	seasons repository.SeasonRepository,
	ranker *leaderboard.Ranker,
	logger *logrus.Logger,
) *ScoreHandler {
	return &ScoreHandler{
		scores:  scores,
		players: players,
		seasons: seasons,
		ranker:  ranker,
		logger:  logger,
	}
}

// Action implements router.Handler.
func (h *ScoreHandler) Action(name string) http.HandlerFunc {
	switch name {
	case "upsert":
		return h.Upsert
	default:
		return nil
	}
}

// Upsert handles POST /scores. The player and season must exist.
func (h *ScoreHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertScoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if errs := req.Validate(); errs.HasErrors() {
		writeError(w, h.logger, errs)
		return
	}

	if _, err := h.players.GetByID(r.Context(), req.PlayerID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.seasons.GetByID(r.Context(), req.SeasonID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	score := &models.Score{
		PlayerID:   req.PlayerID,
		SeasonID:   req.SeasonID,
		TotalScore: req.TotalScore,
		Wins:       req.Wins,
		Losses:     req.Losses,
		UpdatedAt:  time.Now(),
	}

	if err := h.scores.Upsert(r.Context(), score); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.ranker.InvalidateAll(r.Context())

	h.logger.WithFields(logrus.Fields{
		"player_id": score.PlayerID,
		"season_id": score.SeasonID,
		"total":     score.TotalScore,
	}).Info("Score upserted")

	writeJSON(w, h.logger, http.StatusOK, score)
}
