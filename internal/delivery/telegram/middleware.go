package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/service"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling answers a failed handler in the chat. A session that
// ended while the update was handled gets msgQuizOver; shutdown is silent.
func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			h.logger.Debug("handler canceled", zap.Int64("chat_id", chatID))
		case errors.Is(err, service.ErrNoActiveSession):
			h.sendError(chatID, msgQuizOver)
		default:
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.sendError(chatID, msgInternalError)
		}
		return nil
	}
}
