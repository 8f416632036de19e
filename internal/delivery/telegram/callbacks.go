package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Remove the user's "clock".
	defer func() {
		if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			h.logger.Debug("callback answer error", zap.Error(err))
		}
	}()

	if cb.Message == nil {
		return
	}

	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	data := decodeCallback(cb.Data)

	var fn HandlerFunc
	switch data.Action {
	case actionHome:
		fn = h.homeCallback(userID, messageID)
	case actionTable:
		fn = h.tableCallback(messageID, data)
	case actionQuiz:
		fn = h.quizCallback(userID, data)
	case actionStars:
		fn = h.handleStars(userID)
	case actionFairy:
		fn = h.fairyCallback(userID, data)
	case actionSettings:
		fn = h.settingsCallback(userID, messageID, data)
	default:
		h.logger.Debug("unknown callback", zap.String("data", cb.Data))
		return
	}

	_ = h.withErrorHandling(fn)(ctx, chatID)
}

// homeCallback turns the message into the table picker.
func (h *Handler) homeCallback(userID int64, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.leaveFairyMode(userID)

		edit := newEdit(chatID, messageID, formatWelcome())
		kb := buildHomeKeyboard()
		edit.ReplyMarkup = &kb
		return h.send(edit)
	}
}

// tableCallback turns the message into the study view of a table.
func (h *Handler) tableCallback(messageID int, data callbackData) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		table, ok := parseTable(data.param(0))
		if !ok {
			h.logger.Debug("invalid table in callback", zap.String("data", data.Raw))
			return nil
		}

		edit := newEdit(chatID, messageID, formatStudy(table))
		kb := buildStudyKeyboard(table)
		edit.ReplyMarkup = &kb
		return h.send(edit)
	}
}

func (h *Handler) quizCallback(userID int64, data callbackData) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		switch data.param(0) {
		case quizStart:
			table, ok := parseTable(data.param(1))
			if !ok {
				h.logger.Debug("invalid table in callback", zap.String("data", data.Raw))
				return nil
			}
			return h.startQuiz(ctx, chatID, userID, table)

		case quizExit:
			return h.exitQuiz(ctx, chatID, userID, data.param(1))

		default:
			h.logger.Debug("unknown quiz callback", zap.String("data", data.Raw))
			return nil
		}
	}
}

func (h *Handler) fairyCallback(userID int64, data callbackData) HandlerFunc {
	switch data.param(0) {
	case fairyClose:
		return func(ctx context.Context, chatID int64) error {
			return h.closeFairy(chatID, userID)
		}
	default:
		return h.handleFairyCommand(userID, "")
	}
}

func (h *Handler) settingsCallback(userID int64, messageID int, data callbackData) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if data.param(0) == settingsSound {
			if _, err := h.settingsService.ToggleSound(ctx, userID); err != nil {
				return err
			}
		}

		settings, err := h.settingsService.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		edit := newEdit(chatID, messageID, formatSettings(settings))
		kb := buildSettingsKeyboard(settings.SoundEnabled)
		edit.ReplyMarkup = &kb
		return h.send(edit)
	}
}
