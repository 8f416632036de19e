package quiz

// EventKind tags a state change of a session.
type EventKind string

const (
	EventCorrect    EventKind = "correct"    // answer accepted, Correct feedback shown
	EventWrong      EventKind = "wrong"      // answer refused, Wrong feedback shown
	EventSessionWon EventKind = "sessionWon" // last question answered, session finished

	EventFeedbackCleared EventKind = "feedbackCleared" // Wrong feedback elapsed, same question again
	EventAdvanced        EventKind = "advanced"        // Correct feedback elapsed, next question
)

// IsCue reports whether the kind is one of the sound cue tags.
func (k EventKind) IsCue() bool {
	switch k {
	case EventCorrect, EventWrong, EventSessionWon:
		return true
	default:
		return false
	}
}

// Event describes a session after a transition.
// Multiplier is the multiplier of the question current after the transition.
type Event struct {
	Kind       EventKind
	SessionID  string
	Table      int
	Multiplier int
	Position   int
	Score      int
	State      FeedbackState
}

// Listener receives session events. It is called outside the session lock on
// the goroutine that caused the transition, after the feedback timer started,
// so slow work belongs on another goroutine.
type Listener func(Event)
