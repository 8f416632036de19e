package telegram

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
	"github.com/aliskhannn/times-table-bot/internal/service"
	"github.com/aliskhannn/times-table-bot/internal/storage"
)

// cueTimeout bounds sending one sound cue.
const cueTimeout = 10 * time.Second

// startQuiz starts a session on table and sends its question message.
func (h *Handler) startQuiz(ctx context.Context, chatID, userID int64, table int) error {
	h.leaveFairyMode(userID)

	sess, err := h.quizService.Start(ctx, userID, table)
	if errors.Is(err, service.ErrInvalidTable) {
		return h.send(newPlainMessage(chatID, msgUseQuiz))
	}
	if err != nil {
		return err
	}

	msg := newMessage(chatID, formatQuizView(viewFromSnapshot(sess.Snapshot())))
	msg.ReplyMarkup = buildQuizKeyboard(sess.ID())

	sent, err := h.bot.Send(msg)
	if err != nil {
		return err
	}

	h.quizStorage.StoreMessage(userID, sess.ID(), storage.MessageRef{
		ChatID:    chatID,
		MessageID: sent.MessageID,
	})

	return nil
}

// submitAnswer hands text to the live session. Correct and wrong answers are
// shown by editing the question message, so the answer message is removed.
func (h *Handler) submitAnswer(ctx context.Context, chatID, userID int64, messageID int, text string) error {
	res, err := h.quizService.SubmitAnswer(ctx, userID, text)
	if errors.Is(err, service.ErrNoActiveSession) {
		return h.send(newPlainMessage(chatID, msgNoActiveQuiz))
	}
	if err != nil {
		return err
	}

	switch res.Outcome {
	case quiz.OutcomeRejected:
		return h.send(newPlainMessage(chatID, msgAnswerHint))
	case quiz.OutcomeCorrect, quiz.OutcomeWrong:
		h.deleteMessage(chatID, messageID)
	}

	return nil
}

// exitQuiz abandons the session sessionID. Stale IDs from old messages are ignored.
func (h *Handler) exitQuiz(ctx context.Context, chatID, userID int64, sessionID string) error {
	sess, err := h.quizService.ActiveSession(userID)
	if err != nil || sess.ID() != sessionID {
		return h.send(newPlainMessage(chatID, msgQuizOver))
	}

	ref, hasMessage := h.quizStorage.GetMessage(userID, sessionID)
	snap := sess.Snapshot()

	if err := h.quizService.Abandon(ctx, userID); err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			return h.send(newPlainMessage(chatID, msgQuizOver))
		}
		return err
	}

	text := formatAbandoned(snap.Score)
	kb := buildQuizResultKeyboard(snap.Table)

	if hasMessage {
		edit := newEdit(ref.ChatID, ref.MessageID, text)
		edit.ReplyMarkup = &kb
		return h.send(edit)
	}

	msg := newMessage(chatID, text)
	msg.ReplyMarkup = kb
	return h.send(msg)
}

// OnQuizEvent queues the redraw of the question message and the sound cue
// of ev. It returns at once; the user's updates run in event order.
func (h *Handler) OnQuizEvent(userID int64, ev quiz.Event) {
	h.events.dispatch(userID, func() { h.showQuizEvent(userID, ev) })
}

func (h *Handler) showQuizEvent(userID int64, ev quiz.Event) {
	chatID := userID

	ref, ok := h.quizStorage.GetMessage(userID, ev.SessionID)
	if ok {
		chatID = ref.ChatID

		edit := newEdit(ref.ChatID, ref.MessageID, formatQuizView(viewFromEvent(ev)))
		if ev.Kind != quiz.EventSessionWon {
			kb := buildQuizKeyboard(ev.SessionID)
			edit.ReplyMarkup = &kb
		}
		_ = h.send(edit)
	}

	if ev.Kind.IsCue() && h.cues != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cueTimeout)
		defer cancel()
		h.cues.Play(ctx, chatID, userID, ev.Kind)
	}
}

// OnQuizCompleted congratulates the user after the final redraw. Sessions
// run in private chats, where the chat ID equals the user ID.
func (h *Handler) OnQuizCompleted(userID int64, summary service.QuizSummary) {
	h.events.dispatch(userID, func() {
		h.logger.Debug("sending quiz completion",
			zap.Int64("user_id", userID),
			zap.String("session_id", summary.SessionID),
		)

		msg := newMessage(userID, formatCompletion(summary))
		msg.ReplyMarkup = buildQuizResultKeyboard(summary.Table)
		_ = h.send(msg)
	})
}
