package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/infra/postgres"
)

var ErrSettingsNotFound = errors.New("settings not found")

// SettingsRepository provides access to user settings data in the database.
type SettingsRepository struct {
	db postgres.DBTX
}

// NewSettingsRepository creates a new SettingsRepository with the provided database pool.
func NewSettingsRepository(db postgres.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Create creates default settings for a user.
func (r *SettingsRepository) Create(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO user_settings (user_id, openai_api_key, sound_enabled, created_at, updated_at)
		VALUES ($1, NULL, TRUE, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("create settings: %w", err)
	}

	return nil
}

// GetByUserID retrieves settings for a user.
// Returns ErrSettingsNotFound if settings don't exist.
func (r *SettingsRepository) GetByUserID(ctx context.Context, userID int64) (*entities.UserSettings, error) {
	query := `
		SELECT user_id, openai_api_key, sound_enabled, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	var settings entities.UserSettings
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.OpenAIAPIKey,
		&settings.SoundEnabled,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	return &settings, nil
}

// UpdateAPIKey stores the personal API key of a user. A nil key clears it.
func (r *SettingsRepository) UpdateAPIKey(ctx context.Context, userID int64, apiKey *string) error {
	query := `
		UPDATE user_settings
		SET openai_api_key = $2, updated_at = NOW()
		WHERE user_id = $1
	`

	cmdTag, err := r.db.Exec(ctx, query, userID, apiKey)
	if err != nil {
		return fmt.Errorf("update api key: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// ToggleSound flips sound_enabled and returns the new value.
func (r *SettingsRepository) ToggleSound(ctx context.Context, userID int64) (bool, error) {
	query := `
		UPDATE user_settings
		SET sound_enabled = NOT sound_enabled, updated_at = NOW()
		WHERE user_id = $1
		RETURNING sound_enabled
	`

	var enabled bool
	err := r.db.QueryRow(ctx, query, userID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrSettingsNotFound
		}
		return false, fmt.Errorf("toggle sound: %w", err)
	}

	return enabled, nil
}
