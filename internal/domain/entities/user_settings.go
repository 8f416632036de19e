package entities

import "time"

// UserSettings stores per-user preferences.
type UserSettings struct {
	UserID       int64
	OpenAIAPIKey *string // nullable, personal key for the math fairy
	SoundEnabled bool    // send sound cues during quizzes
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUserSettings creates a new UserSettings instance with default values.
func NewUserSettings(userID int64) *UserSettings {
	now := time.Now()
	return &UserSettings{
		UserID:       userID,
		SoundEnabled: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasAPIKey reports whether the user stored a personal API key.
func (us *UserSettings) HasAPIKey() bool {
	return us.OpenAIAPIKey != nil && *us.OpenAIAPIKey != ""
}
