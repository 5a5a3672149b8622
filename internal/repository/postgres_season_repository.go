package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// PostgresSeasonRepository implements SeasonRepository for PostgreSQL.
type PostgresSeasonRepository struct {
	getPool PoolGetter
}

// NewPostgresSeasonRepository creates a new PostgreSQL season repository.
func NewPostgresSeasonRepository(poolGetter PoolGetter) *PostgresSeasonRepository {
	return &PostgresSeasonRepository{
		getPool: poolGetter,
	}
}

// GetActive returns the currently active season. A season counts as
// active only while its window covers the current time, regardless of a
// stale is_active flag.
func (r *PostgresSeasonRepository) GetActive(ctx context.Context) (*models.Season, error) {
	query := `
		SELECT id, name, start_date, end_date, is_active
		FROM seasons
		WHERE is_active = true
		  AND start_date <= now()
		  AND end_date >= now()
		ORDER BY start_date DESC
		LIMIT 1`

	return r.scanSeason(ctx, query)
}

// GetByID retrieves a season by ID.
func (r *PostgresSeasonRepository) GetByID(ctx context.Context, seasonID string) (*models.Season, error) {
	query := `
		SELECT id, name, start_date, end_date, is_active
		FROM seasons
		WHERE id = $1`

	return r.scanSeason(ctx, query, seasonID)
}

func (r *PostgresSeasonRepository) scanSeason(
	ctx context.Context,
	query string,
	args ...interface{},
) (*models.Season, error) {
	pool := r.getPool()
	if pool == nil {
		return nil, ErrDatabaseUnavailable
	}

	var season models.Season
	err := pool.QueryRow(ctx, query, args...).Scan(
		&season.ID,
		&season.Name,
		&season.StartDate,
		&season.EndDate,
		&season.IsActive,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan season: %w", err)
	}

	return &season, nil
}
