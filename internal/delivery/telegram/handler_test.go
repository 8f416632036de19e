package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
	"github.com/aliskhannn/times-table-bot/internal/service"
	"github.com/aliskhannn/times-table-bot/internal/storage"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	block    chan struct{}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.block != nil {
		<-b.block
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (b *fakeBot) StopReceivingUpdates() {}

func (b *fakeBot) sentMessages() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.sent...)
}

func (b *fakeBot) sentRequests() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.requests...)
}

type fakeQuizService struct {
	session   *quiz.Session
	result    quiz.Result
	submitErr error
	submitted []string
}

func (f *fakeQuizService) Start(context.Context, int64, int) (*quiz.Session, error) {
	return nil, errors.New("not used")
}

func (f *fakeQuizService) ActiveSession(int64) (*quiz.Session, error) {
	if f.session == nil {
		return nil, service.ErrNoActiveSession
	}
	return f.session, nil
}

func (f *fakeQuizService) SubmitAnswer(_ context.Context, _ int64, raw string) (quiz.Result, error) {
	f.submitted = append(f.submitted, raw)
	return f.result, f.submitErr
}

func (f *fakeQuizService) Abandon(context.Context, int64) error { return nil }

type fixedMessages struct {
	ref storage.MessageRef
}

func (m fixedMessages) StoreMessage(int64, string, storage.MessageRef) {}

func (m fixedMessages) GetMessage(int64, string) (storage.MessageRef, bool) {
	return m.ref, true
}

func newTestHandler(bot *fakeBot, quizService QuizService) *Handler {
	return NewHandler(bot, zap.NewNop(), nil, quizService, nil, nil, nil,
		fixedMessages{ref: storage.MessageRef{ChatID: 42, MessageID: 100}}, nil)
}

func newLiveSession(t *testing.T) *quiz.Session {
	t.Helper()
	s, err := quiz.NewSession(4, quiz.WithID("session-1"))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestHandleTextRouting(t *testing.T) {
	const (
		chatID    = int64(42)
		userID    = int64(7)
		messageID = 555
	)

	tests := []struct {
		name      string
		live      bool
		result    quiz.Result
		submitErr error
		wantText  string
		wantDrop  bool
	}{
		{name: "no live session", wantText: msgNoActiveQuiz},
		{name: "rejected input gets a hint", live: true, result: quiz.Result{Outcome: quiz.OutcomeRejected}, wantText: msgAnswerHint},
		{name: "input during feedback is ignored", live: true, result: quiz.Result{Outcome: quiz.OutcomeIgnored}},
		{name: "correct answer is removed", live: true, result: quiz.Result{Outcome: quiz.OutcomeCorrect}, wantDrop: true},
		{name: "wrong answer is removed", live: true, result: quiz.Result{Outcome: quiz.OutcomeWrong}, wantDrop: true},
		{name: "session ended meanwhile", live: true, submitErr: service.ErrNoActiveSession, wantText: msgNoActiveQuiz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeBot{}
			qs := &fakeQuizService{result: tt.result, submitErr: tt.submitErr}
			if tt.live {
				qs.session = newLiveSession(t)
			}
			h := newTestHandler(bot, qs)

			if err := h.handleText(userID, messageID, "12")(context.Background(), chatID); err != nil {
				t.Fatalf("handleText: %v", err)
			}

			if tt.live && (len(qs.submitted) != 1 || qs.submitted[0] != "12") {
				t.Fatalf("submitted = %v, want [12]", qs.submitted)
			}

			sent := bot.sentMessages()
			if tt.wantText == "" {
				if len(sent) != 0 {
					t.Fatalf("sent %d messages, want none", len(sent))
				}
			} else {
				if len(sent) != 1 {
					t.Fatalf("sent %d messages, want 1", len(sent))
				}
				msg, ok := sent[0].(tgbotapi.MessageConfig)
				if !ok || msg.Text != tt.wantText || msg.ChatID != chatID {
					t.Fatalf("sent %+v, want %q to chat %d", sent[0], tt.wantText, chatID)
				}
			}

			requests := bot.sentRequests()
			if !tt.wantDrop {
				if len(requests) != 0 {
					t.Fatalf("requests = %v, want none", requests)
				}
				return
			}
			if len(requests) != 1 {
				t.Fatalf("requests = %d, want 1", len(requests))
			}
			del, ok := requests[0].(tgbotapi.DeleteMessageConfig)
			if !ok || del.ChatID != chatID || del.MessageID != messageID {
				t.Fatalf("request = %+v, want delete of message %d", requests[0], messageID)
			}
		})
	}
}

func TestOnQuizEventDoesNotWaitForTelegram(t *testing.T) {
	bot := &fakeBot{block: make(chan struct{})}
	h := newTestHandler(bot, &fakeQuizService{})

	events := []quiz.Event{
		{Kind: quiz.EventCorrect, SessionID: "session-1", Table: 4, Multiplier: 3, Score: 1, State: quiz.Correct},
		{Kind: quiz.EventAdvanced, SessionID: "session-1", Table: 4, Multiplier: 1, Position: 1, Score: 1},
	}

	done := make(chan struct{})
	go func() {
		for _, ev := range events {
			h.OnQuizEvent(7, ev)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("OnQuizEvent blocked on a pending Telegram request")
	}

	close(bot.block)
	h.events.wait()

	sent := bot.sentMessages()
	if len(sent) != len(events) {
		t.Fatalf("sent %d edits, want %d", len(sent), len(events))
	}
	for i, ev := range events {
		edit, ok := sent[i].(tgbotapi.EditMessageTextConfig)
		if !ok {
			t.Fatalf("sent[%d] is %T, want an edit", i, sent[i])
		}
		if edit.MessageID != 100 || edit.Text != formatQuizView(viewFromEvent(ev)) {
			t.Fatalf("edit %d = %q, want the %s view", i, edit.Text, ev.Kind)
		}
	}
}

func TestOnQuizCompletedFollowsFinalRedraw(t *testing.T) {
	bot := &fakeBot{}
	h := newTestHandler(bot, &fakeQuizService{})

	h.OnQuizEvent(7, quiz.Event{Kind: quiz.EventSessionWon, SessionID: "session-1", Table: 4, Multiplier: 6, Position: 8, Score: 9, State: quiz.Correct})
	h.OnQuizCompleted(7, service.QuizSummary{SessionID: "session-1", Table: 4, FinalScore: 9})
	h.events.wait()

	sent := bot.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if _, ok := sent[0].(tgbotapi.EditMessageTextConfig); !ok {
		t.Fatalf("first message is %T, want the final edit", sent[0])
	}
	if msg, ok := sent[1].(tgbotapi.MessageConfig); !ok || msg.ChatID != 7 {
		t.Fatalf("second message = %+v, want the completion to chat 7", sent[1])
	}
}

func TestWithErrorHandling(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{name: "success"},
		{name: "shutdown", err: fmt.Errorf("send: %w", context.Canceled)},
		{name: "session over", err: service.ErrNoActiveSession, wantText: msgQuizOver},
		{name: "other failure", err: errors.New("db down"), wantText: msgInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeBot{}
			h := newTestHandler(bot, &fakeQuizService{})

			fn := h.withErrorHandling(func(context.Context, int64) error { return tt.err })
			if err := fn(context.Background(), 42); err != nil {
				t.Fatalf("err = %v, want nil", err)
			}

			sent := bot.sentMessages()
			if tt.wantText == "" {
				if len(sent) != 0 {
					t.Fatalf("sent %d messages, want none", len(sent))
				}
				return
			}
			if len(sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(sent))
			}
			if msg := sent[0].(tgbotapi.MessageConfig); msg.Text != tt.wantText {
				t.Fatalf("text = %q, want %q", msg.Text, tt.wantText)
			}
		})
	}
}
