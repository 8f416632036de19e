package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// IdleAbandoner abandons live sessions idle for longer than a timeout.
type IdleAbandoner interface {
	AbandonIdle(ctx context.Context, idle time.Duration) int
}

// SessionSweeper periodically abandons quiz sessions left idle,
// e.g. when a child closed the chat in the middle of a round.
type SessionSweeper struct {
	quiz     IdleAbandoner
	schedule string
	idle     time.Duration
	logger   *zap.Logger
}

func NewSessionSweeper(quiz IdleAbandoner, schedule string, idle time.Duration, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		quiz:     quiz,
		schedule: schedule,
		idle:     idle,
		logger:   logger,
	}
}

// Start runs the sweep on its cron schedule until ctx is done.
func (s *SessionSweeper) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.schedule, func() { s.sweep(ctx) })
	if err != nil {
		return err
	}

	c.Start()
	s.logger.Info("session sweeper started", zap.String("schedule", s.schedule))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("session sweeper stopped")

	return nil
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	n := s.quiz.AbandonIdle(ctx, s.idle)
	if n > 0 {
		s.logger.Info("idle quiz sessions abandoned", zap.Int("count", n))
	}
}
