// Package leaderboard computes ranked leaderboard pages over per-season
// scores, with a cache-aside layer in front of the database. Ranks are
// positional within the requested ordering, so an entry's rank is its
// page offset plus index plus one.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/cache"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/repository"
)

const (
	// DefaultLimit is the page size used when the caller passes none.
	DefaultLimit = 50
	// CacheKeyPrefix namespaces cached leaderboard pages in Redis.
	CacheKeyPrefix = "leaderboard:"
)

// ErrSeasonRequired is returned when no season is specified and no
// active season exists.
var ErrSeasonRequired = errors.New("no season specified and no active season")

// Ranker assembles leaderboard pages.
type Ranker struct {
	scores  repository.ScoreRepository
	players repository.PlayerRepository
	seasons repository.SeasonRepository
	cache   *cache.ResponseCache
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewRanker creates a leaderboard ranker.
func NewRanker(
	scores repository.ScoreRepository,
	players repository.PlayerRepository,
	seasons repository.SeasonRepository,
	responseCache *cache.ResponseCache,
	cfg *config.CacheConfig,
	logger *logrus.Logger,
) *Ranker {
	return &Ranker{
		scores:  scores,
		players: players,
		seasons: seasons,
		cache:   responseCache,
		ttl:     cfg.LeaderboardTTL,
		logger:  logger,
	}
}

// GetPage returns one ranked page for a season and optional region.
// An empty seasonID resolves to the active season. The limit is clamped
// to the configured maximum and defaults when non-positive; a negative
// offset is treated as zero. Pages are served from cache when present.
func (rk *Ranker) GetPage(ctx context.Context, seasonID, region string, limit, offset int) (*models.LeaderboardPage, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > config.MaxLeaderboardLimit {
		limit = config.MaxLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}

	if seasonID == "" {
		active, err := rk.seasons.GetActive(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrSeasonRequired
			}
			return nil, fmt.Errorf("failed to resolve active season: %w", err)
		}
		seasonID = active.ID
	} else if _, err := rk.seasons.GetByID(ctx, seasonID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: season %q", repository.ErrNotFound, seasonID)
		}
		return nil, fmt.Errorf("failed to look up season: %w", err)
	}

	key := pageKey(seasonID, region, offset, limit)
	if cached, ok := rk.cache.Get(ctx, key); ok {
		var page models.LeaderboardPage
		if err := json.Unmarshal([]byte(cached), &page); err == nil {
			return &page, nil
		}
		// Corrupt entries are dropped and recomputed.
		rk.cache.Delete(ctx, key)
	}

	page, err := rk.computePage(ctx, seasonID, region, limit, offset)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(page); err == nil {
		rk.cache.Set(ctx, key, string(encoded), rk.ttl)
	}

	return page, nil
}

func (rk *Ranker) computePage(ctx context.Context, seasonID, region string, limit, offset int) (*models.LeaderboardPage, error) {
	scores, err := rk.scores.TopScores(ctx, seasonID, region, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}

	total, err := rk.scores.Count(ctx, seasonID, region)
	if err != nil {
		return nil, fmt.Errorf("failed to count scores: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(scores))
	for i, score := range scores {
		player, err := rk.players.GetByID(ctx, score.PlayerID)
		if err != nil {
			// A score without a resolvable player is dropped from the
			// page rather than failing the whole request.
			rk.logger.WithError(err).WithField("player_id", score.PlayerID).
				Warn("Dropping leaderboard entry for unresolvable player")
			continue
		}

		entries = append(entries, models.LeaderboardEntry{
			Rank:          offset + i + 1,
			PlayerID:      player.ID,
			Nickname:      player.Nickname,
			TotalTrophies: score.TotalScore,
			Region:        player.Region,
			Level:         player.Level,
		})
	}

	page := offset/limit + 1

	return &models.LeaderboardPage{
		Entries:  entries,
		Total:    total,
		Page:     page,
		Limit:    limit,
		Offset:   offset,
		HasMore:  offset+limit < total,
		SeasonID: seasonID,
		Region:   region,
	}, nil
}

// InvalidateAll flushes every cached leaderboard page. Called after a
// score upsert; the next reads repopulate the cache.
func (rk *Ranker) InvalidateAll(ctx context.Context) {
	rk.cache.FlushPrefix(ctx, CacheKeyPrefix)
}

// pageKey builds the cache key for one page. An empty region is stored
// under the "global" segment.
func pageKey(seasonID, region string, offset, limit int) string {
	regionSegment := region
	if regionSegment == "" {
		regionSegment = "global"
	}
	return fmt.Sprintf("%s%s:%s:%d:%d", CacheKeyPrefix, regionSegment, seasonID, offset, limit)
}
