package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/service"
)

const fairyTimeout = 60 * time.Second

// askFairy answers question in the background so quiz input keeps flowing
// while the model is thinking.
func (h *Handler) askFairy(ctx context.Context, chatID, userID int64, question string) {
	_, _ = h.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fairyTimeout)
		defer cancel()

		reply, err := h.fairyService.Ask(ctx, userID, question)
		switch {
		case errors.Is(err, service.ErrBusy):
			reply = msgFairyBusy
		case errors.Is(err, service.ErrEmptyQuestion):
			reply = service.FairyGreeting
		case err != nil:
			h.logger.Error("fairy failed", zap.Int64("user_id", userID), zap.Error(err))
			reply = msgInternalError
		}

		msg := newPlainMessage(chatID, reply)
		msg.ReplyMarkup = buildFairyKeyboard()
		_ = h.send(msg)
	}()
}

// closeFairy leaves fairy mode and forgets the conversation.
func (h *Handler) closeFairy(chatID, userID int64) error {
	h.leaveFairyMode(userID)
	h.fairyService.Reset(userID)
	return h.send(newPlainMessage(chatID, msgFairyBye))
}
