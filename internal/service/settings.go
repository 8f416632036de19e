package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/infra/postgres/repository"
)

var ErrNoAPIKey = errors.New("no api key configured")

type SettingsService struct {
	repository    SettingsRepository
	defaultAPIKey string
}

func NewSettingsService(repository SettingsRepository, defaultAPIKey string) *SettingsService {
	return &SettingsService{repository: repository, defaultAPIKey: defaultAPIKey}
}

func (s *SettingsService) GetOrCreate(ctx context.Context, userID int64) (*entities.UserSettings, error) {
	settings, err := s.repository.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			// Create default settings.
			if err := s.repository.Create(ctx, userID); err != nil {
				return nil, err
			}
			// Retrieve newly created settings.
			return s.repository.GetByUserID(ctx, userID)
		}
		return nil, err
	}

	return settings, nil
}

// SetAPIKey stores a personal key for the math fairy.
func (s *SettingsService) SetAPIKey(ctx context.Context, userID int64, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrNoAPIKey
	}

	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	return s.repository.UpdateAPIKey(ctx, userID, &apiKey)
}

// ClearAPIKey removes the personal key, falling back to the default one.
func (s *SettingsService) ClearAPIKey(ctx context.Context, userID int64) error {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	return s.repository.UpdateAPIKey(ctx, userID, nil)
}

func (s *SettingsService) ToggleSound(ctx context.Context, userID int64) (bool, error) {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return false, err
	}
	return s.repository.ToggleSound(ctx, userID)
}

// APIKey returns the user's key, or the default key when the user has none.
func (s *SettingsService) APIKey(ctx context.Context, userID int64) (string, error) {
	settings, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}

	if settings.HasAPIKey() {
		return *settings.OpenAIAPIKey, nil
	}
	if s.defaultAPIKey != "" {
		return s.defaultAPIKey, nil
	}
	return "", ErrNoAPIKey
}
