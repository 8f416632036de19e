package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
	"github.com/aliskhannn/times-table-bot/internal/domain/quiz/quiztest"
	"github.com/aliskhannn/times-table-bot/internal/storage"
)

type fakeResults struct {
	mu      sync.Mutex
	saved   []entities.QuizResult
	stars   map[int64]int
	saveErr error
	stats   []entities.TableStats
}

func newFakeResults() *fakeResults {
	return &fakeResults{stars: make(map[int64]int)}
}

func (f *fakeResults) SaveResult(_ context.Context, r *entities.QuizResult) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = append(f.saved, *r)
	if r.IsCompleted() {
		f.stars[r.UserID] += r.Score
	}
	return f.stars[r.UserID], nil
}

func (f *fakeResults) StatsByUser(_ context.Context, _ int64) ([]entities.TableStats, error) {
	return f.stats, nil
}

func (f *fakeResults) GetStars(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stars[userID], nil
}

type fakeObserver struct {
	mu        sync.Mutex
	events    []quiz.Event
	summaries []QuizSummary
}

func (o *fakeObserver) OnQuizEvent(_ int64, ev quiz.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *fakeObserver) OnQuizCompleted(_ int64, s QuizSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summaries = append(o.summaries, s)
}

type quizFixture struct {
	svc      *QuizService
	clock    *quiztest.Clock
	results  *fakeResults
	observer *fakeObserver
	store    *storage.QuizStorage
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()

	f := &quizFixture{
		clock:    quiztest.NewClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		results:  newFakeResults(),
		observer: &fakeObserver{},
		store:    storage.NewQuizStorage(),
	}
	f.svc = NewQuizService(f.store, f.results, QuizOptions{Clock: f.clock}, zap.NewNop())
	f.svc.SetObserver(f.observer)

	return f
}

func (f *quizFixture) answerCorrectly(t *testing.T, userID int64) {
	t.Helper()

	table, m, err := f.svc.CurrentQuestion(userID)
	if err != nil {
		t.Fatalf("CurrentQuestion: %v", err)
	}
	res, err := f.svc.SubmitAnswer(context.Background(), userID, strconv.Itoa(table*m))
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if res.Outcome != quiz.OutcomeCorrect {
		t.Fatalf("outcome = %v, want correct", res.Outcome)
	}
	f.clock.Advance(quiz.DefaultCorrectDelay)
}

func TestQuizServiceStartValidatesTable(t *testing.T) {
	f := newQuizFixture(t)

	for _, table := range []int{0, 10, -1} {
		if _, err := f.svc.Start(context.Background(), 1, table); !errors.Is(err, ErrInvalidTable) {
			t.Fatalf("Start(%d) err = %v, want %v", table, err, ErrInvalidTable)
		}
	}
}

func TestQuizServiceNoActiveSession(t *testing.T) {
	f := newQuizFixture(t)

	if _, _, err := f.svc.CurrentQuestion(1); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("CurrentQuestion err = %v", err)
	}
	if _, err := f.svc.SubmitAnswer(context.Background(), 1, "3"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("SubmitAnswer err = %v", err)
	}
	if err := f.svc.Abandon(context.Background(), 1); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Abandon err = %v", err)
	}
}

func TestQuizServiceFullRoundAwardsStarsOnce(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, 7, 6); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// one wrong attempt on the first question
	if res, _ := f.svc.SubmitAnswer(ctx, 7, "1"); res.Outcome != quiz.OutcomeWrong {
		t.Fatalf("outcome = %v, want wrong", res.Outcome)
	}
	f.clock.Advance(quiz.DefaultWrongDelay)

	for i := 0; i < quiz.QuestionCount; i++ {
		f.answerCorrectly(t, 7)
	}
	f.clock.Advance(time.Minute)

	if len(f.observer.summaries) != 1 {
		t.Fatalf("completions = %d, want 1", len(f.observer.summaries))
	}
	sum := f.observer.summaries[0]
	if sum.FinalScore != 9 || sum.TotalStars != 9 || sum.WrongAttempts != 1 || sum.Table != 6 {
		t.Fatalf("summary = %+v", sum)
	}

	if len(f.results.saved) != 1 || f.results.saved[0].Status != entities.QuizStatusCompleted {
		t.Fatalf("saved results = %+v", f.results.saved)
	}
	if _, err := f.svc.ActiveSession(7); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("session still active after completion: %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("completed session left in store")
	}
}

func TestQuizServiceForwardsEvents(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, 1, 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, _ = f.svc.SubmitAnswer(ctx, 1, "0")
	f.clock.Advance(quiz.DefaultWrongDelay)

	if len(f.observer.events) != 2 {
		t.Fatalf("events = %+v", f.observer.events)
	}
	if f.observer.events[0].Kind != quiz.EventWrong || f.observer.events[1].Kind != quiz.EventFeedbackCleared {
		t.Fatalf("event kinds = %s, %s", f.observer.events[0].Kind, f.observer.events[1].Kind)
	}
}

func TestQuizServiceStartReplacesPreviousSession(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, 1, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.answerCorrectly(t, 1)

	// leave a wrong feedback timer pending on the first session
	_, _ = f.svc.SubmitAnswer(ctx, 1, "0")

	second, err := f.svc.Start(ctx, 1, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if first.ID() == second.ID() {
		t.Fatalf("new session reused the previous id")
	}
	if !first.Closed() {
		t.Fatalf("previous session not closed")
	}

	active, err := f.svc.ActiveSession(1)
	if err != nil || active != second {
		t.Fatalf("ActiveSession = %v, %v", active, err)
	}

	f.clock.Advance(quiz.DefaultWrongDelay)
	if first.State() != quiz.Wrong {
		t.Fatalf("closed session settled its feedback")
	}

	if len(f.results.saved) != 1 {
		t.Fatalf("saved = %d, want 1 abandoned result", len(f.results.saved))
	}
	abandoned := f.results.saved[0]
	if abandoned.Status != entities.QuizStatusAbandoned || abandoned.Score != 1 {
		t.Fatalf("abandoned result = %+v", abandoned)
	}
	if stars, _ := f.results.GetStars(ctx, 1); stars != 0 {
		t.Fatalf("stars = %d, abandoned sessions must not award stars", stars)
	}
}

func TestQuizServiceAbandonSuppressesCompletion(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, 5, 9); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < quiz.QuestionCount-1; i++ {
		f.answerCorrectly(t, 5)
	}

	table, m, _ := f.svc.CurrentQuestion(5)
	if res, _ := f.svc.SubmitAnswer(ctx, 5, strconv.Itoa(table*m)); res.Outcome != quiz.OutcomeCorrect {
		t.Fatalf("last answer not accepted")
	}

	if err := f.svc.Abandon(ctx, 5); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	f.clock.Advance(time.Minute)

	if len(f.observer.summaries) != 0 {
		t.Fatalf("completion fired after abandon")
	}
	if len(f.results.saved) != 1 || f.results.saved[0].Status != entities.QuizStatusAbandoned {
		t.Fatalf("saved = %+v", f.results.saved)
	}
}

func TestQuizServiceAbandonIdle(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, 1, 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.clock.Advance(20 * time.Minute)

	if _, err := f.svc.Start(ctx, 2, 3); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.clock.Advance(15 * time.Minute)

	if n := f.svc.AbandonIdle(ctx, 30*time.Minute); n != 1 {
		t.Fatalf("abandoned = %d, want 1", n)
	}
	if _, err := f.svc.ActiveSession(1); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("idle session still active")
	}
	if _, err := f.svc.ActiveSession(2); err != nil {
		t.Fatalf("recent session abandoned: %v", err)
	}
}

func TestQuizServiceSaveErrorStillNotifies(t *testing.T) {
	f := newQuizFixture(t)
	f.results.saveErr = errors.New("db down")

	if _, err := f.svc.Start(context.Background(), 1, 1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < quiz.QuestionCount; i++ {
		f.answerCorrectly(t, 1)
	}

	if len(f.observer.summaries) != 1 || f.observer.summaries[0].FinalScore != 9 {
		t.Fatalf("summaries = %+v", f.observer.summaries)
	}
}
