package entities

import "time"

// Quiz result statuses.
const (
	QuizStatusCompleted = "completed"
	QuizStatusAbandoned = "abandoned"
)

// QuizResult is the record of one finished or abandoned quiz session.
type QuizResult struct {
	ID            int64     // unique result ID
	SessionID     string    // quiz session UUID
	UserID        int64     // user who played the session
	Table         int       // practiced table
	Score         int       // correct answers when the session ended
	WrongAttempts int       // wrong submissions across the session
	Status        string    // "completed" or "abandoned"
	StartedAt     time.Time // session start
	FinishedAt    time.Time // completion or abandon time
}

// IsCompleted reports whether all questions were answered.
func (r *QuizResult) IsCompleted() bool {
	return r.Status == QuizStatusCompleted
}

// Duration returns how long the session lasted.
func (r *QuizResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// TableStats aggregates the results of one table for a user.
type TableStats struct {
	Table         int
	Completed     int
	Abandoned     int
	WrongAttempts int
	BestTime      time.Duration // fastest completed session, zero if none
}

// QuizStats aggregates all results of a user.
type QuizStats struct {
	Stars  int
	Tables []TableStats
}
