package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
)

var (
	ErrInvalidTable    = errors.New("table must be between 1 and 9")
	ErrNoActiveSession = errors.New("no active quiz session")
)

// resultTimeout bounds the database work done when a session ends on a timer goroutine.
const resultTimeout = 5 * time.Second

// QuizSummary describes a finished session.
type QuizSummary struct {
	SessionID     string
	Table         int
	FinalScore    int
	WrongAttempts int
	TotalStars    int
	Duration      time.Duration
}

// QuizOptions configures feedback timings of new sessions.
type QuizOptions struct {
	CorrectDelay time.Duration
	WrongDelay   time.Duration
	Clock        quiz.Clock
}

// QuizService starts, drives and ends the quiz sessions of users.
// Each user has at most one live session.
type QuizService struct {
	sessions QuizSessionStore
	results  QuizResultRepository
	observer QuizObserver
	opts     QuizOptions
	logger   *zap.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	sessions QuizSessionStore,
	results QuizResultRepository,
	opts QuizOptions,
	logger *zap.Logger,
) *QuizService {
	if opts.Clock == nil {
		opts.Clock = quiz.SystemClock()
	}

	return &QuizService{
		sessions: sessions,
		results:  results,
		opts:     opts,
		logger:   logger,
	}
}

// SetObserver sets the observer (called after handler is created).
func (s *QuizService) SetObserver(observer QuizObserver) {
	s.observer = observer
}

// Start creates a session for table with a fresh question order.
// A previous live session of the user is abandoned first.
func (s *QuizService) Start(ctx context.Context, userID int64, table int) (*quiz.Session, error) {
	if !entities.ValidTable(table) {
		return nil, ErrInvalidTable
	}

	if prev, ok := s.sessions.Get(userID); ok {
		s.abandon(ctx, userID, prev)
	}

	var sess *quiz.Session
	sess, err := quiz.NewSession(
		quiz.Table(table),
		quiz.WithID(uuid.NewString()),
		quiz.WithClock(s.opts.Clock),
		quiz.WithDelays(s.opts.CorrectDelay, s.opts.WrongDelay),
		quiz.WithListener(func(ev quiz.Event) {
			if s.observer != nil {
				s.observer.OnQuizEvent(userID, ev)
			}
		}),
		quiz.WithCompletion(func(finalScore int) {
			s.complete(userID, sess, finalScore)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("new quiz session: %w", err)
	}

	s.sessions.Store(userID, sess)

	s.logger.Info("quiz session started",
		zap.Int64("user_id", userID),
		zap.String("session_id", sess.ID()),
		zap.Int("table", table),
	)

	return sess, nil
}

// ActiveSession returns the live session of a user.
func (s *QuizService) ActiveSession(userID int64) (*quiz.Session, error) {
	sess, ok := s.sessions.Get(userID)
	if !ok || sess.Closed() {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// CurrentQuestion returns the table and multiplier of the user's current question.
func (s *QuizService) CurrentQuestion(userID int64) (table, multiplier int, err error) {
	sess, err := s.ActiveSession(userID)
	if err != nil {
		return 0, 0, err
	}

	table, multiplier, err = sess.CurrentQuestion()
	if errors.Is(err, quiz.ErrSessionClosed) {
		return 0, 0, ErrNoActiveSession
	}
	return table, multiplier, err
}

// SubmitAnswer evaluates raw for the user's current question.
func (s *QuizService) SubmitAnswer(_ context.Context, userID int64, raw string) (quiz.Result, error) {
	sess, err := s.ActiveSession(userID)
	if err != nil {
		return quiz.Result{}, err
	}

	res := sess.Submit(raw)

	s.logger.Debug("quiz answer submitted",
		zap.Int64("user_id", userID),
		zap.String("session_id", sess.ID()),
		zap.Stringer("outcome", res.Outcome),
		zap.Int("expected", res.Expected),
	)

	return res, nil
}

// Abandon closes the user's live session without awarding stars.
func (s *QuizService) Abandon(ctx context.Context, userID int64) error {
	sess, ok := s.sessions.Get(userID)
	if !ok {
		return ErrNoActiveSession
	}
	if !s.abandon(ctx, userID, sess) {
		return ErrNoActiveSession
	}
	return nil
}

// AbandonIdle abandons live sessions without activity for longer than idle.
// It returns the number of abandoned sessions.
func (s *QuizService) AbandonIdle(ctx context.Context, idle time.Duration) int {
	cutoff := s.opts.Clock.Now().Add(-idle)

	n := 0
	for userID, sess := range s.sessions.Snapshot() {
		if sess.LastActivity().After(cutoff) {
			continue
		}
		if s.abandon(ctx, userID, sess) {
			n++
		}
	}

	return n
}

func (s *QuizService) abandon(ctx context.Context, userID int64, sess *quiz.Session) bool {
	s.sessions.Delete(userID, sess.ID())

	// A session that already completed was recorded by complete.
	if !sess.Close() {
		return false
	}

	result := s.newResult(userID, sess, entities.QuizStatusAbandoned)
	if _, err := s.results.SaveResult(ctx, result); err != nil {
		s.logger.Error("failed to save abandoned quiz",
			zap.Int64("user_id", userID),
			zap.String("session_id", sess.ID()),
			zap.Error(err),
		)
	}

	s.logger.Info("quiz session abandoned",
		zap.Int64("user_id", userID),
		zap.String("session_id", sess.ID()),
		zap.Int("score", result.Score),
	)

	return true
}

// complete runs on the session's timer goroutine once the last answer settles.
func (s *QuizService) complete(userID int64, sess *quiz.Session, finalScore int) {
	ctx, cancel := context.WithTimeout(context.Background(), resultTimeout)
	defer cancel()

	s.sessions.Delete(userID, sess.ID())

	result := s.newResult(userID, sess, entities.QuizStatusCompleted)
	result.Score = finalScore

	total, err := s.results.SaveResult(ctx, result)
	if err != nil {
		s.logger.Error("failed to save completed quiz",
			zap.Int64("user_id", userID),
			zap.String("session_id", sess.ID()),
			zap.Error(err),
		)
	}

	summary := QuizSummary{
		SessionID:     sess.ID(),
		Table:         result.Table,
		FinalScore:    finalScore,
		WrongAttempts: result.WrongAttempts,
		TotalStars:    total,
		Duration:      result.Duration(),
	}

	s.logger.Info("quiz session completed",
		zap.Int64("user_id", userID),
		zap.String("session_id", sess.ID()),
		zap.Int("final_score", finalScore),
		zap.Int("total_stars", total),
	)

	if s.observer != nil {
		s.observer.OnQuizCompleted(userID, summary)
	}
}

func (s *QuizService) newResult(userID int64, sess *quiz.Session, status string) *entities.QuizResult {
	return &entities.QuizResult{
		SessionID:     sess.ID(),
		UserID:        userID,
		Table:         int(sess.Table()),
		Score:         sess.Score(),
		WrongAttempts: sess.WrongAttempts(),
		Status:        status,
		StartedAt:     sess.StartedAt(),
		FinishedAt:    s.opts.Clock.Now(),
	}
}
