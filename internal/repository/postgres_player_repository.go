package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// PostgresPlayerRepository implements PlayerRepository for PostgreSQL.
type PostgresPlayerRepository struct {
	getPool PoolGetter
}

// NewPostgresPlayerRepository creates a new PostgreSQL player repository.
func NewPostgresPlayerRepository(poolGetter PoolGetter) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{
		getPool: poolGetter,
	}
}

// GetByID retrieves a player by ID.
func (r *PostgresPlayerRepository) GetByID(ctx context.Context, playerID string) (*models.Player, error) {
	pool := r.getPool()
	if pool == nil {
		return nil, ErrDatabaseUnavailable
	}

	query := `
		SELECT id, user_id, nickname, region, level, created_at, updated_at
		FROM players
		WHERE id = $1`

	var player models.Player
	err := pool.QueryRow(ctx, query, playerID).Scan(
		&player.ID,
		&player.UserID,
		&player.Nickname,
		&player.Region,
		&player.Level,
		&player.CreatedAt,
		&player.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &player, nil
}

// Search returns players whose nickname contains the query, case-insensitively.
func (r *PostgresPlayerRepository) Search(ctx context.Context, query string, limit int) ([]models.Player, error) {
	pool := r.getPool()
	if pool == nil {
		return nil, ErrDatabaseUnavailable
	}

	sql := `
		SELECT id, user_id, nickname, region, level, created_at, updated_at
		FROM players
		WHERE nickname ILIKE '%' || $1 || '%'
		ORDER BY nickname ASC
		LIMIT $2`

	rows, err := pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	defer rows.Close()

	players := make([]models.Player, 0, limit)
	for rows.Next() {
		var player models.Player
		if scanErr := rows.Scan(
			&player.ID,
			&player.UserID,
			&player.Nickname,
			&player.Region,
			&player.Level,
			&player.CreatedAt,
			&player.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player: %w", scanErr)
		}
		players = append(players, player)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}

	return players, nil
}

// Create persists a new player profile.
func (r *PostgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	pool := r.getPool()
	if pool == nil {
		return ErrDatabaseUnavailable
	}

	query := `
		INSERT INTO players
		(id, user_id, nickname, region, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := pool.Exec(ctx, query,
		player.ID,
		player.UserID,
		player.Nickname,
		player.Region,
		player.Level,
		player.CreatedAt,
		player.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	return nil
}
