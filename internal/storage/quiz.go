package storage

import (
	"sync"

	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
)

// MessageRef points at the Telegram message showing the current question.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

type liveSession struct {
	session *quiz.Session
	message *MessageRef
}

// QuizStorage keeps the live quiz session of each user in memory.
type QuizStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*liveSession
}

// NewQuizStorage creates a new QuizStorage.
func NewQuizStorage() *QuizStorage {
	return &QuizStorage{
		sessions: make(map[int64]*liveSession),
	}
}

// Store registers the live session of a user, replacing any previous one.
func (s *QuizStorage) Store(userID int64, session *quiz.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &liveSession{session: session}
}

// Get returns the live session of a user.
func (s *QuizStorage) Get(userID int64) (*quiz.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ls, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	return ls.session, true
}

// Delete removes the session of a user only if it is still sessionID.
// It reports whether something was removed.
func (s *QuizStorage) Delete(userID int64, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.sessions[userID]
	if !ok || ls.session.ID() != sessionID {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// StoreMessage remembers the question message of the user's live session.
func (s *QuizStorage) StoreMessage(userID int64, sessionID string, ref MessageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.sessions[userID]
	if !ok || ls.session.ID() != sessionID {
		return
	}
	ls.message = &ref
}

// GetMessage returns the question message of the session, if one was stored.
func (s *QuizStorage) GetMessage(userID int64, sessionID string) (MessageRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ls, ok := s.sessions[userID]
	if !ok || ls.session.ID() != sessionID || ls.message == nil {
		return MessageRef{}, false
	}
	return *ls.message, true
}

// Snapshot returns the live sessions keyed by user ID.
func (s *QuizStorage) Snapshot() map[int64]*quiz.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]*quiz.Session, len(s.sessions))
	for userID, ls := range s.sessions {
		out[userID] = ls.session
	}
	return out
}

// Len returns the number of live sessions.
func (s *QuizStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
