package service

import (
	"context"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
)

type UserRepository interface {
	Save(ctx context.Context, user *entities.User) (bool, error)
}

type SettingsRepository interface {
	Create(ctx context.Context, userID int64) error
	GetByUserID(ctx context.Context, userID int64) (*entities.UserSettings, error)
	UpdateAPIKey(ctx context.Context, userID int64, apiKey *string) error
	ToggleSound(ctx context.Context, userID int64) (bool, error)
}

type RewardRepository interface {
	GetStars(ctx context.Context, userID int64) (int, error)
}

type QuizResultRepository interface {
	SaveResult(ctx context.Context, result *entities.QuizResult) (int, error)
	StatsByUser(ctx context.Context, userID int64) ([]entities.TableStats, error)
}

// QuizSessionStore keeps the live session of each user.
type QuizSessionStore interface {
	Store(userID int64, session *quiz.Session)
	Get(userID int64) (*quiz.Session, bool)
	Delete(userID int64, sessionID string) bool
	Snapshot() map[int64]*quiz.Session
}

// QuizObserver is notified about live session transitions.
// Calls may come from timer goroutines.
type QuizObserver interface {
	OnQuizEvent(userID int64, ev quiz.Event)
	OnQuizCompleted(userID int64, summary QuizSummary)
}

// ChatCompleter sends a transcript to a language model and returns its reply.
type ChatCompleter interface {
	Complete(ctx context.Context, apiKey string, messages []entities.ChatMessage) (string, error)
}
