// Package repository defines data access interfaces for users, players,
// scores, and seasons, with PostgreSQL implementations backed by pgx and
// in-memory implementations for development and testing.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDatabaseUnavailable is returned when the connection pool is down.
var ErrDatabaseUnavailable = errors.New("database connection not available")

// PoolGetter is a function that returns the current database connection pool.
// Repositories call it per operation so they always use the active pool,
// supporting automatic reconnection.
type PoolGetter func() *pgxpool.Pool

// UserRepository manages registered accounts.
type UserRepository interface {
	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail retrieves a user by email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID retrieves a user by ID, or ErrNotFound.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	// EmailExists checks whether an email is already registered.
	EmailExists(ctx context.Context, email string) (bool, error)
	// LinkBrawlAccount records the Brawl Stars player tag on a user.
	LinkBrawlAccount(ctx context.Context, userID, brawlPlayerID string) error
}

// PlayerRepository manages ranked game profiles.
type PlayerRepository interface {
	// GetByID retrieves a player by ID, or ErrNotFound.
	GetByID(ctx context.Context, playerID string) (*models.Player, error)
	// Search returns players whose nickname contains the query,
	// case-insensitively, up to limit rows.
	Search(ctx context.Context, query string, limit int) ([]models.Player, error)
	// Create persists a new player profile.
	Create(ctx context.Context, player *models.Player) error
}

// ScoreRepository manages per-season score accumulation.
type ScoreRepository interface {
	// TopScores returns score rows for a season ordered by total score
	// descending, ties broken by player ID ascending. An empty region
	// means no region filter.
	TopScores(ctx context.Context, seasonID, region string, limit, offset int) ([]models.Score, error)
	// Count returns the number of score rows for a season and optional
	// region filter.
	Count(ctx context.Context, seasonID, region string) (int, error)
	// Upsert inserts or replaces the score row for (player, season).
	Upsert(ctx context.Context, score *models.Score) error
}

// SeasonRepository manages season windows.
type SeasonRepository interface {
	// GetActive returns the currently active season, or ErrNotFound.
	GetActive(ctx context.Context) (*models.Season, error)
	// GetByID retrieves a season by ID, or ErrNotFound.
	GetByID(ctx context.Context, seasonID string) (*models.Season, error)
}
