package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Handler struct {
	bot             Bot
	logger          *zap.Logger
	userService     UserService
	quizService     QuizService
	settingsService SettingsService
	rewardService   RewardService
	fairyService    FairyService
	quizStorage     QuizStorage
	cues            *CuePlayer
	events          *eventDispatcher

	mu         sync.Mutex
	fairyUsers map[int64]struct{} // users whose free text goes to the fairy
}

func NewHandler(
	bot Bot,
	logger *zap.Logger,
	userService UserService,
	quizService QuizService,
	settingsService SettingsService,
	rewardService RewardService,
	fairyService FairyService,
	quizStorage QuizStorage,
	cues *CuePlayer,
) *Handler {
	return &Handler{
		bot:             bot,
		logger:          logger,
		userService:     userService,
		quizService:     quizService,
		settingsService: settingsService,
		rewardService:   rewardService,
		fairyService:    fairyService,
		quizStorage:     quizStorage,
		cues:            cues,
		events:          newEventDispatcher(),
		fairyUsers:      make(map[int64]struct{}),
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")
	defer h.events.wait()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.Bool("command", update.Message.IsCommand()),
	)

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	messageID := update.Message.MessageID

	if err := h.userService.EnsureUser(ctx, userID, chatID); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	if update.Message.IsCommand() {
		args := update.Message.CommandArguments()

		switch update.Message.Command() {
		case "start":
			_ = h.withErrorHandling(h.handleStart(userID))(ctx, chatID)
		case "help":
			_ = h.send(newPlainMessage(chatID, msgHelp))
		case "study":
			_ = h.withErrorHandling(h.handleStudy(args))(ctx, chatID)
		case "quiz":
			_ = h.withErrorHandling(h.handleQuizCommand(userID, args))(ctx, chatID)
		case "stop":
			_ = h.withErrorHandling(h.handleStop(userID))(ctx, chatID)
		case "stars":
			_ = h.withErrorHandling(h.handleStars(userID))(ctx, chatID)
		case "stats":
			_ = h.withErrorHandling(h.handleStats(userID))(ctx, chatID)
		case "fairy":
			_ = h.withErrorHandling(h.handleFairyCommand(userID, args))(ctx, chatID)
		case "setkey":
			_ = h.withErrorHandling(h.handleSetKey(userID, messageID, args))(ctx, chatID)
		case "clearkey":
			_ = h.withErrorHandling(h.handleClearKey(userID))(ctx, chatID)
		case "settings":
			_ = h.withErrorHandling(h.handleSettings(userID))(ctx, chatID)
		default:
			_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
		}

		return
	}

	_ = h.withErrorHandling(h.handleText(userID, messageID, update.Message.Text))(ctx, chatID)
}

func (h *Handler) sendError(chatID int64, text string) {
	_ = h.send(newPlainMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return err
	}
	return nil
}

// deleteMessage removes a message, failures are ignored.
func (h *Handler) deleteMessage(chatID int64, messageID int) {
	_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
}

func (h *Handler) enterFairyMode(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fairyUsers[userID] = struct{}{}
}

func (h *Handler) leaveFairyMode(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.fairyUsers, userID)
}

func (h *Handler) inFairyMode(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.fairyUsers[userID]
	return ok
}
