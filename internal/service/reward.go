package service

import (
	"context"
	"fmt"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
)

// RewardService reads the star counter and result history of users.
type RewardService struct {
	rewards RewardRepository
	results QuizResultRepository
}

func NewRewardService(rewards RewardRepository, results QuizResultRepository) *RewardService {
	return &RewardService{rewards: rewards, results: results}
}

func (s *RewardService) Stars(ctx context.Context, userID int64) (int, error) {
	return s.rewards.GetStars(ctx, userID)
}

// Stats returns the stars and per-table results of a user.
func (s *RewardService) Stats(ctx context.Context, userID int64) (*entities.QuizStats, error) {
	stars, err := s.rewards.GetStars(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get stars: %w", err)
	}

	tables, err := s.results.StatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get table stats: %w", err)
	}

	return &entities.QuizStats{Stars: stars, Tables: tables}, nil
}
