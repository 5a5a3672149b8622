package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// MemoryUserRepository is an in-memory UserRepository for development and
// testing.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*models.User),
	}
}

// CreateUser persists a new user.
func (r *MemoryUserRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.users[user.ID] = &copied
	return nil
}

// GetUserByEmail retrieves a user by email.
func (r *MemoryUserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByID retrieves a user by ID.
func (r *MemoryUserRepository) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// EmailExists checks whether an email is already registered.
func (r *MemoryUserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// LinkBrawlAccount records the Brawl Stars player tag on a user.
func (r *MemoryUserRepository) LinkBrawlAccount(_ context.Context, userID, brawlPlayerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.BrawlStarsPlayerID = &brawlPlayerID
	user.UpdatedAt = time.Now()
	return nil
}

// MemoryPlayerRepository is an in-memory PlayerRepository.
type MemoryPlayerRepository struct {
	mu      sync.RWMutex
	players map[string]*models.Player
}

// NewMemoryPlayerRepository creates an empty in-memory player repository.
func NewMemoryPlayerRepository() *MemoryPlayerRepository {
	return &MemoryPlayerRepository{
		players: make(map[string]*models.Player),
	}
}

// GetByID retrieves a player by ID.
func (r *MemoryPlayerRepository) GetByID(_ context.Context, playerID string) (*models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	player, ok := r.players[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *player
	return &copied, nil
}

// Search returns players whose nickname contains the query,
// case-insensitively, ordered by nickname.
func (r *MemoryPlayerRepository) Search(_ context.Context, query string, limit int) ([]models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	matches := make([]models.Player, 0)
	for _, player := range r.players {
		if strings.Contains(strings.ToLower(player.Nickname), needle) {
			matches = append(matches, *player)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Nickname < matches[j].Nickname
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Create persists a new player profile.
func (r *MemoryPlayerRepository) Create(_ context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *player
	r.players[player.ID] = &copied
	return nil
}

// MemoryScoreRepository is an in-memory ScoreRepository. Region filtering
// resolves player regions through the paired player repository.
type MemoryScoreRepository struct {
	mu      sync.RWMutex
	scores  map[string]*models.Score
	players *MemoryPlayerRepository
}

// NewMemoryScoreRepository creates an empty in-memory score repository.
// The player repository is consulted for region filters.
func NewMemoryScoreRepository(players *MemoryPlayerRepository) *MemoryScoreRepository {
	return &MemoryScoreRepository{
		scores:  make(map[string]*models.Score),
		players: players,
	}
}

func scoreKey(playerID, seasonID string) string {
	return playerID + "|" + seasonID
}

func (r *MemoryScoreRepository) seasonScores(ctx context.Context, seasonID, region string) []models.Score {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]models.Score, 0)
	for _, score := range r.scores {
		if score.SeasonID != seasonID {
			continue
		}
		if region != "" {
			player, err := r.players.GetByID(ctx, score.PlayerID)
			if err != nil || player.Region != region {
				continue
			}
		}
		rows = append(rows, *score)
	}
	return rows
}

// TopScores returns season scores ordered by total score descending,
// ties broken by player ID ascending.
func (r *MemoryScoreRepository) TopScores(
	ctx context.Context,
	seasonID, region string,
	limit, offset int,
) ([]models.Score, error) {
	rows := r.seasonScores(ctx, seasonID, region)

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})

	if offset >= len(rows) {
		return []models.Score{}, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Count returns the number of score rows for a season and optional region.
func (r *MemoryScoreRepository) Count(ctx context.Context, seasonID, region string) (int, error) {
	return len(r.seasonScores(ctx, seasonID, region)), nil
}

// Upsert inserts or replaces the score row for (player, season).
func (r *MemoryScoreRepository) Upsert(_ context.Context, score *models.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *score
	r.scores[scoreKey(score.PlayerID, score.SeasonID)] = &copied
	return nil
}

// MemorySeasonRepository is an in-memory SeasonRepository.
type MemorySeasonRepository struct {
	mu      sync.RWMutex
	seasons map[string]*models.Season
}

// NewMemorySeasonRepository creates an empty in-memory season repository.
func NewMemorySeasonRepository() *MemorySeasonRepository {
	return &MemorySeasonRepository{
		seasons: make(map[string]*models.Season),
	}
}

// Add registers a season.
func (r *MemorySeasonRepository) Add(season *models.Season) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *season
	r.seasons[season.ID] = &copied
}

// GetActive returns the currently active season. A season counts as
// active only while its window covers the current time, regardless of a
// stale IsActive flag.
func (r *MemorySeasonRepository) GetActive(_ context.Context) (*models.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now()
	for _, season := range r.seasons {
		if season.IsActive && season.Covers(now) {
			copied := *season
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// GetByID retrieves a season by ID.
func (r *MemorySeasonRepository) GetByID(_ context.Context, seasonID string) (*models.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	season, ok := r.seasons[seasonID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *season
	return &copied, nil
}
