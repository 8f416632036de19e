package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
	"github.com/aliskhannn/times-table-bot/internal/storage"
)

// Bot is the part of the Telegram Bot API the handler uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type UserService interface {
	EnsureUser(ctx context.Context, userID, chatID int64) error
}

type QuizService interface {
	Start(ctx context.Context, userID int64, table int) (*quiz.Session, error)
	ActiveSession(userID int64) (*quiz.Session, error)
	SubmitAnswer(ctx context.Context, userID int64, raw string) (quiz.Result, error)
	Abandon(ctx context.Context, userID int64) error
}

type SettingsService interface {
	GetOrCreate(ctx context.Context, userID int64) (*entities.UserSettings, error)
	SetAPIKey(ctx context.Context, userID int64, apiKey string) error
	ClearAPIKey(ctx context.Context, userID int64) error
	ToggleSound(ctx context.Context, userID int64) (bool, error)
}

type RewardService interface {
	Stars(ctx context.Context, userID int64) (int, error)
	Stats(ctx context.Context, userID int64) (*entities.QuizStats, error)
}

type FairyService interface {
	Ask(ctx context.Context, userID int64, question string) (string, error)
	Reset(userID int64)
}

// QuizStorage remembers which message shows the question of a live session.
type QuizStorage interface {
	StoreMessage(userID int64, sessionID string, ref storage.MessageRef)
	GetMessage(userID int64, sessionID string) (storage.MessageRef, bool)
}
