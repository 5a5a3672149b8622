package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// PostgresUserRepository implements UserRepository for PostgreSQL.
type PostgresUserRepository struct {
	getPool PoolGetter
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(poolGetter PoolGetter) *PostgresUserRepository {
	return &PostgresUserRepository{
		getPool: poolGetter,
	}
}

// CreateUser creates a new user in the database.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	pool := r.getPool()
	if pool == nil {
		return ErrDatabaseUnavailable
	}

	query := `
		INSERT INTO users
		(id, email, nickname, password_hash, brawl_stars_player_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Nickname,
		user.PasswordHash,
		user.BrawlStarsPlayerID,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by email address.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, nickname, password_hash, brawl_stars_player_id, created_at, updated_at
		FROM users
		WHERE email = $1`

	return r.scanUser(ctx, query, email)
}

// GetUserByID retrieves a user by their ID.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, email, nickname, password_hash, brawl_stars_player_id, created_at, updated_at
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, query, userID)
}

// EmailExists checks if an email is already registered.
func (r *PostgresUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	pool := r.getPool()
	if pool == nil {
		return false, ErrDatabaseUnavailable
	}

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := pool.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// LinkBrawlAccount records the Brawl Stars player tag on a user.
func (r *PostgresUserRepository) LinkBrawlAccount(ctx context.Context, userID, brawlPlayerID string) error {
	pool := r.getPool()
	if pool == nil {
		return ErrDatabaseUnavailable
	}

	query := `
		UPDATE users
		SET brawl_stars_player_id = $2, updated_at = $3
		WHERE id = $1`

	result, err := pool.Exec(ctx, query, userID, brawlPlayerID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to link brawl account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// scanUser is a helper method to scan user data from database rows.
func (r *PostgresUserRepository) scanUser(
	ctx context.Context,
	query string,
	args ...interface{},
) (*models.User, error) {
	pool := r.getPool()
	if pool == nil {
		return nil, ErrDatabaseUnavailable
	}

	var user models.User

	err := pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.Nickname,
		&user.PasswordHash,
		&user.BrawlStarsPlayerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user, nil
}
