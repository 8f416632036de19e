package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/times-table-bot/internal/infra/postgres"
)

// RewardRepository provides access to the star counters of users.
type RewardRepository struct {
	db postgres.DBTX
}

// NewRewardRepository creates a new RewardRepository.
func NewRewardRepository(db postgres.DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

// GetStars returns the stars of a user, zero if none were earned yet.
func (r *RewardRepository) GetStars(ctx context.Context, userID int64) (int, error) {
	query := `SELECT stars FROM rewards WHERE user_id = $1`

	var stars int
	err := r.db.QueryRow(ctx, query, userID).Scan(&stars)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get stars: %w", err)
	}

	return stars, nil
}

// addStars adds stars to a user's counter and returns the new total.
func addStars(ctx context.Context, db postgres.DBTX, userID int64, stars int) (int, error) {
	query := `
		INSERT INTO rewards (user_id, stars, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			stars = rewards.stars + EXCLUDED.stars,
			updated_at = NOW()
		RETURNING stars
	`

	var total int
	if err := db.QueryRow(ctx, query, userID, stars).Scan(&total); err != nil {
		return 0, fmt.Errorf("add stars: %w", err)
	}

	return total, nil
}
