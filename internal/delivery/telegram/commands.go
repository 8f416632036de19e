package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/service"
)

// parseTable parses a table number between 1 and 9.
func parseTable(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !entities.ValidTable(n) {
		return 0, false
	}
	return n, true
}

// handleStart shows the welcome message with the table picker.
func (h *Handler) handleStart(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.leaveFairyMode(userID)

		msg := newMessage(chatID, formatWelcome())
		msg.ReplyMarkup = buildHomeKeyboard()
		return h.send(msg)
	}
}

// handleStudy shows the study view of the table given as argument.
func (h *Handler) handleStudy(args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		table, ok := parseTable(args)
		if !ok {
			return h.send(newPlainMessage(chatID, msgUseStudy))
		}

		msg := newMessage(chatID, formatStudy(table))
		msg.ReplyMarkup = buildStudyKeyboard(table)
		return h.send(msg)
	}
}

// handleQuizCommand starts a challenge on the table given as argument.
func (h *Handler) handleQuizCommand(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		table, ok := parseTable(args)
		if !ok {
			return h.send(newPlainMessage(chatID, msgUseQuiz))
		}
		return h.startQuiz(ctx, chatID, userID, table)
	}
}

// handleStop abandons the running challenge.
func (h *Handler) handleStop(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		sess, err := h.quizService.ActiveSession(userID)
		if errors.Is(err, service.ErrNoActiveSession) {
			return h.send(newPlainMessage(chatID, msgNoActiveQuiz))
		}
		if err != nil {
			return err
		}

		return h.exitQuiz(ctx, chatID, userID, sess.ID())
	}
}

func (h *Handler) handleStars(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		stars, err := h.rewardService.Stars(ctx, userID)
		if err != nil {
			return err
		}
		return h.send(newMessage(chatID, formatStars(stars)))
	}
}

func (h *Handler) handleStats(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		stats, err := h.rewardService.Stats(ctx, userID)
		if err != nil {
			return err
		}
		return h.send(newMessage(chatID, formatStats(stats)))
	}
}

// handleFairyCommand asks the fairy directly or, without a question,
// switches the chat into fairy mode.
func (h *Handler) handleFairyCommand(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.enterFairyMode(userID)

		if strings.TrimSpace(args) == "" {
			msg := newPlainMessage(chatID, service.FairyGreeting)
			msg.ReplyMarkup = buildFairyKeyboard()
			return h.send(msg)
		}

		h.askFairy(ctx, chatID, userID, args)
		return nil
	}
}

// handleSetKey stores a personal fairy key and deletes the message carrying it.
func (h *Handler) handleSetKey(userID int64, messageID int, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		key := strings.TrimSpace(args)
		if key == "" {
			return h.send(newPlainMessage(chatID, msgUseSetKey))
		}

		h.deleteMessage(chatID, messageID)

		if err := h.settingsService.SetAPIKey(ctx, userID, key); err != nil {
			return err
		}

		h.logger.Info("fairy key updated", zap.Int64("user_id", userID))
		return h.send(newPlainMessage(chatID, msgKeySaved))
	}
}

func (h *Handler) handleClearKey(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if err := h.settingsService.ClearAPIKey(ctx, userID); err != nil {
			return err
		}
		return h.send(newPlainMessage(chatID, msgKeyCleared))
	}
}

func (h *Handler) handleSettings(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		settings, err := h.settingsService.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		msg := newMessage(chatID, formatSettings(settings))
		msg.ReplyMarkup = buildSettingsKeyboard(settings.SoundEnabled)
		return h.send(msg)
	}
}

// handleText routes free text: answers go to the live session,
// otherwise to the fairy when fairy mode is on.
func (h *Handler) handleText(userID int64, messageID int, text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if _, err := h.quizService.ActiveSession(userID); err == nil {
			return h.submitAnswer(ctx, chatID, userID, messageID, text)
		}

		if h.inFairyMode(userID) {
			h.askFairy(ctx, chatID, userID, text)
			return nil
		}

		return h.send(newPlainMessage(chatID, msgNoActiveQuiz))
	}
}
