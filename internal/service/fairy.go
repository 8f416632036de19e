package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrBusy          = errors.New("the fairy is still answering")
)

const fairyPrompt = "You are the Multiplication Fairy, a math helper for children aged 6 to 10. " +
	"Answer playfully and use vivid comparisons with apples, candies and stars. " +
	"Keep explanations simple and under 100 words. Praise the child often."

// Fallback replies shown instead of model errors.
const (
	FairyGreeting     = "Hi! I'm the Multiplication Fairy ✨ Want to know a multiplication secret? Ask me something like \"why is 2×3 equal to 6?\""
	FairyDistracted   = "Oops, the fairy got distracted for a moment. Could you ask me again?"
	FairyNetworkIssue = "The network planet is a bit crowded right now. Ask me again in a little while!"
	FairyNoKey        = "The fairy needs a magic key first. Ask a grown-up to send /setkey <key>."
)

const defaultMaxHistory = 10

type transcript struct {
	messages []entities.ChatMessage
	busy     bool
}

// FairyService answers children's multiplication questions through a chat model.
// Failures are reported as friendly replies and never touch quiz state.
type FairyService struct {
	completer  ChatCompleter
	keys       APIKeyProvider
	maxHistory int
	logger     *zap.Logger

	mu          sync.Mutex
	transcripts map[int64]*transcript
}

// APIKeyProvider resolves the model API key of a user.
type APIKeyProvider interface {
	APIKey(ctx context.Context, userID int64) (string, error)
}

func NewFairyService(completer ChatCompleter, keys APIKeyProvider, maxHistory int, logger *zap.Logger) *FairyService {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}

	return &FairyService{
		completer:   completer,
		keys:        keys,
		maxHistory:  maxHistory,
		logger:      logger,
		transcripts: make(map[int64]*transcript),
	}
}

// Ask sends question with the user's recent transcript and returns the reply.
// ErrEmptyQuestion and ErrBusy are the only errors; model failures become
// fallback replies.
func (s *FairyService) Ask(ctx context.Context, userID int64, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	history, err := s.begin(userID, question)
	if err != nil {
		return "", err
	}

	reply, ok := s.complete(ctx, userID, history)
	s.finish(userID, reply, ok)

	return reply, nil
}

// Reset forgets the user's transcript.
func (s *FairyService) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.transcripts[userID]; ok && !t.busy {
		delete(s.transcripts, userID)
	}
}

func (s *FairyService) begin(userID int64, question string) ([]entities.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transcripts[userID]
	if !ok {
		t = &transcript{}
		s.transcripts[userID] = t
	}
	if t.busy {
		return nil, ErrBusy
	}
	t.busy = true

	t.messages = append(t.messages, entities.ChatMessage{Role: entities.RoleUser, Text: question})
	t.trim(s.maxHistory)

	history := make([]entities.ChatMessage, 0, len(t.messages)+1)
	history = append(history, entities.ChatMessage{Role: entities.RoleSystem, Text: fairyPrompt})
	history = append(history, t.messages...)

	return history, nil
}

// finish records reply in the transcript when it came from the model.
func (s *FairyService) finish(userID int64, reply string, fromModel bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.transcripts[userID]
	t.busy = false
	if fromModel {
		t.messages = append(t.messages, entities.ChatMessage{Role: entities.RoleAssistant, Text: reply})
		t.trim(s.maxHistory)
	}
}

func (s *FairyService) complete(ctx context.Context, userID int64, history []entities.ChatMessage) (string, bool) {
	apiKey, err := s.keys.APIKey(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoAPIKey) {
			return FairyNoKey, false
		}
		s.logger.Error("failed to resolve fairy api key", zap.Int64("user_id", userID), zap.Error(err))
		return FairyNetworkIssue, false
	}

	reply, err := s.completer.Complete(ctx, apiKey, history)
	if err != nil {
		s.logger.Warn("fairy completion failed", zap.Int64("user_id", userID), zap.Error(err))
		return FairyNetworkIssue, false
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return FairyDistracted, false
	}
	return reply, true
}

func (t *transcript) trim(limit int) {
	if len(t.messages) > limit {
		t.messages = append([]entities.ChatMessage(nil), t.messages[len(t.messages)-limit:]...)
	}
}
