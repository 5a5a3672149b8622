package repository

import (
	"context"
	"fmt"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// PostgresScoreRepository implements ScoreRepository for PostgreSQL.
type PostgresScoreRepository struct {
	getPool PoolGetter
}

// NewPostgresScoreRepository creates a new PostgreSQL score repository.
func NewPostgresScoreRepository(poolGetter PoolGetter) *PostgresScoreRepository {
	return &PostgresScoreRepository{
		getPool: poolGetter,
	}
}

// TopScores returns score rows for a season ordered by total score
// descending, ties broken by player ID ascending. The region filter
// joins through the players table; an empty region matches all rows.
func (r *PostgresScoreRepository) TopScores(
	ctx context.Context,
	seasonID, region string,
	limit, offset int,
) ([]models.Score, error) {
	pool := r.getPool()
	if pool == nil {
		return nil, ErrDatabaseUnavailable
	}

	query := `
		SELECT s.player_id, s.season_id, s.total_score, s.wins, s.losses, s.updated_at
		FROM scores s
		JOIN players p ON p.id = s.player_id
		WHERE s.season_id = $1
		  AND ($2 = '' OR p.region = $2)
		ORDER BY s.total_score DESC, s.player_id ASC
		LIMIT $3 OFFSET $4`

	rows, err := pool.Query(ctx, query, seasonID, region, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	defer rows.Close()

	scores := make([]models.Score, 0, limit)
	for rows.Next() {
		var score models.Score
		if scanErr := rows.Scan(
			&score.PlayerID,
			&score.SeasonID,
			&score.TotalScore,
			&score.Wins,
			&score.Losses,
			&score.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan score: %w", scanErr)
		}
		scores = append(scores, score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}

	return scores, nil
}

// Count returns the number of score rows for a season and optional region.
func (r *PostgresScoreRepository) Count(ctx context.Context, seasonID, region string) (int, error) {
	pool := r.getPool()
	if pool == nil {
		return 0, ErrDatabaseUnavailable
	}

	query := `
		SELECT COUNT(*)
		FROM scores s
		JOIN players p ON p.id = s.player_id
		WHERE s.season_id = $1
		  AND ($2 = '' OR p.region = $2)`

	var count int
	if err := pool.QueryRow(ctx, query, seasonID, region).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}

	return count, nil
}

// Upsert inserts or replaces the score row for (player, season).
func (r *PostgresScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	pool := r.getPool()
	if pool == nil {
		return ErrDatabaseUnavailable
	}

	query := `
		INSERT INTO scores (player_id, season_id, total_score, wins, losses, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_id, season_id)
		DO UPDATE SET
			total_score = EXCLUDED.total_score,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			updated_at = EXCLUDED.updated_at`

	_, err := pool.Exec(ctx, query,
		score.PlayerID,
		score.SeasonID,
		score.TotalScore,
		score.Wins,
		score.Losses,
		score.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}

	return nil
}
