package quiz

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultCorrectDelay = time.Second
	DefaultWrongDelay   = 1500 * time.Millisecond
)

var (
	ErrInvalidTable  = errors.New("table must be a positive integer")
	ErrInvalidOrder  = errors.New("order must be a permutation of 1..9")
	ErrSessionClosed = errors.New("quiz session is closed")
)

// Table is the fixed multiplicand practiced in one session.
type Table int

// FeedbackState governs what may be shown and whether input is accepted.
type FeedbackState int

const (
	AwaitingInput FeedbackState = iota
	Correct
	Wrong
)

func (s FeedbackState) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case Correct:
		return "correct"
	case Wrong:
		return "wrong"
	default:
		return "unknown"
	}
}

// Outcome is the result of a submission.
type Outcome int

const (
	OutcomeIgnored  Outcome = iota // session closed or showing feedback
	OutcomeRejected                // empty or non-numeric input
	OutcomeCorrect
	OutcomeWrong
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRejected:
		return "rejected"
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	default:
		return "unknown"
	}
}

// Result is the evaluation of one submitted answer.
// Expected and Given are set only for OutcomeCorrect and OutcomeWrong.
type Result struct {
	Outcome  Outcome
	Expected int
	Given    int
}

// Snapshot is a read-only projection of a session for rendering.
type Snapshot struct {
	ID            string
	Table         int
	Multiplier    int
	Position      int
	Score         int
	State         FeedbackState
	PendingInput  string
	InputEmpty    bool
	Attempts      int
	WrongAttempts int
	Completed     bool
	Closed        bool
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session identifier.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithOrder forces the question order instead of generating one.
func WithOrder(o Order) Option {
	return func(s *Session) {
		s.order = o
		s.forcedOrder = true
	}
}

// WithRand sets the random source used to generate the order.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rnd = r }
}

// WithClock sets the clock scheduling feedback timers.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithDelays overrides the feedback presentation delays. Non-positive values keep the defaults.
func WithDelays(correct, wrong time.Duration) Option {
	return func(s *Session) {
		if correct > 0 {
			s.correctDelay = correct
		}
		if wrong > 0 {
			s.wrongDelay = wrong
		}
	}
}

// WithListener registers an event listener.
func WithListener(l Listener) Option {
	return func(s *Session) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// WithCompletion sets the callback fired once when the last question is answered.
func WithCompletion(fn func(finalScore int)) Option {
	return func(s *Session) { s.onComplete = fn }
}

// Session is one practice round over the nine multipliers of a table.
type Session struct {
	mu sync.Mutex

	id    string
	table Table
	order Order

	position int
	score    int
	state    FeedbackState
	pending  string

	attempts      int
	wrongAttempts int

	clock        Clock
	rnd          *rand.Rand
	forcedOrder  bool
	correctDelay time.Duration
	wrongDelay   time.Duration

	timer      Timer
	generation uint64
	closed     bool
	completed  bool

	listeners  []Listener
	onComplete func(finalScore int)

	outbox   []func()
	draining bool

	startedAt    time.Time
	lastActivity time.Time
}

// NewSession creates a session at the first question with score 0.
// The order is generated once here and never reshuffled.
func NewSession(table Table, opts ...Option) (*Session, error) {
	if table <= 0 {
		return nil, ErrInvalidTable
	}

	s := &Session{
		table:        table,
		state:        AwaitingInput,
		clock:        SystemClock(),
		correctDelay: DefaultCorrectDelay,
		wrongDelay:   DefaultWrongDelay,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.forcedOrder {
		if !s.order.Valid() {
			return nil, ErrInvalidOrder
		}
	} else {
		if s.rnd == nil {
			s.rnd = newRand()
		}
		s.order = GenerateOrder(s.rnd)
	}

	s.startedAt = s.clock.Now()
	s.lastActivity = s.startedAt

	return s, nil
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Table() Table { return s.table }
func (s *Session) Order() Order { return s.order }

func (s *Session) StartedAt() time.Time { return s.startedAt }

// LastActivity returns the time of the last submission or transition.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) State() FeedbackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *Session) WrongAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrongAttempts
}

// Closed reports whether the session completed or was closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Completed reports whether the session finished by answering every question.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// CurrentQuestion returns the table and the current multiplier.
func (s *Session) CurrentQuestion() (table, multiplier int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, 0, ErrSessionClosed
	}
	return int(s.table), s.order[s.position], nil
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:            s.id,
		Table:         int(s.table),
		Multiplier:    s.order[s.position],
		Position:      s.position,
		Score:         s.score,
		State:         s.state,
		PendingInput:  s.pending,
		InputEmpty:    s.pending == "",
		Attempts:      s.attempts,
		WrongAttempts: s.wrongAttempts,
		Completed:     s.completed,
		Closed:        s.closed,
	}
}

// SetInput stores the raw text typed for the current question.
// It reports false while feedback is shown or after the session closed.
func (s *Session) SetInput(raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != AwaitingInput {
		return false
	}
	s.pending = raw
	return true
}

// Submit evaluates raw against table × order[position].
//
// A correct answer increments the score and shows Correct feedback; when the
// feedback delay elapses the session advances or completes. A wrong answer
// shows Wrong feedback and, after its delay, the same question again.
// Submissions during feedback or after close are ignored; empty and
// non-numeric input is rejected without any transition.
func (s *Session) Submit(raw string) Result {
	s.mu.Lock()

	if s.closed || s.state != AwaitingInput {
		s.mu.Unlock()
		return Result{Outcome: OutcomeIgnored}
	}

	s.pending = raw
	s.lastActivity = s.clock.Now()

	given, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.mu.Unlock()
		return Result{Outcome: OutcomeRejected}
	}

	s.attempts++

	expected := int(s.table) * s.order[s.position]
	res := Result{Expected: expected, Given: given}

	var (
		kind  EventKind
		delay time.Duration
	)
	if given == expected {
		s.score++
		s.state = Correct
		res.Outcome = OutcomeCorrect
		kind, delay = EventCorrect, s.correctDelay
	} else {
		s.wrongAttempts++
		s.state = Wrong
		res.Outcome = OutcomeWrong
		kind, delay = EventWrong, s.wrongDelay
	}

	s.generation++
	s.armLocked(s.generation, delay)
	s.emitLocked(s.eventLocked(kind))
	s.mu.Unlock()

	s.flush()

	return res
}

// Close tears the session down and suppresses any pending feedback timer.
// It reports whether the session was still live.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	s.generation++
	s.stopTimerLocked()

	return true
}

// armLocked starts the feedback timer of generation gen. The timer runs from
// the transition itself, so listener work never stretches the delay.
func (s *Session) armLocked(gen uint64, d time.Duration) {
	s.stopTimerLocked()
	s.timer = s.clock.AfterFunc(d, func() { s.settle(gen) })
}

// settle ends the feedback started by the submission of generation gen.
func (s *Session) settle(gen uint64) {
	s.mu.Lock()

	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.lastActivity = s.clock.Now()

	switch s.state {
	case Correct:
		if s.position == QuestionCount-1 {
			s.completed = true
			s.closed = true
			s.emitLocked(s.eventLocked(EventSessionWon))
			if onComplete := s.onComplete; onComplete != nil {
				finalScore := s.score
				s.outbox = append(s.outbox, func() { onComplete(finalScore) })
			}
		} else {
			s.position++
			s.pending = ""
			s.state = AwaitingInput
			s.emitLocked(s.eventLocked(EventAdvanced))
		}
	case Wrong:
		s.state = AwaitingInput
		s.emitLocked(s.eventLocked(EventFeedbackCleared))
	}
	s.mu.Unlock()

	s.flush()
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) eventLocked(kind EventKind) Event {
	return Event{
		Kind:       kind,
		SessionID:  s.id,
		Table:      int(s.table),
		Multiplier: s.order[s.position],
		Position:   s.position,
		Score:      s.score,
		State:      s.state,
	}
}

// emitLocked queues ev for every listener. Events leave the queue in the
// order of the transitions that produced them.
func (s *Session) emitLocked(ev Event) {
	for _, l := range s.listeners {
		s.outbox = append(s.outbox, func() { l(ev) })
	}
}

// flush delivers queued events outside the lock. Only one goroutine drains
// at a time; a timer firing while a listener runs queues its event behind
// the one being delivered and returns.
func (s *Session) flush() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true

	for len(s.outbox) > 0 {
		next := s.outbox[0]
		s.outbox[0] = nil
		s.outbox = s.outbox[1:]

		s.mu.Unlock()
		next()
		s.mu.Lock()
	}

	s.draining = false
	s.mu.Unlock()
}
