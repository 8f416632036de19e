package telegram

import (
	"context"
	"os"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
)

// Sender sends a Telegram request.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SoundPreferences reports whether a user wants sound cues.
type SoundPreferences interface {
	GetOrCreate(ctx context.Context, userID int64) (*entities.UserSettings, error)
}

var cueFiles = map[quiz.EventKind]string{
	quiz.EventCorrect:    "correct.ogg",
	quiz.EventWrong:      "wrong.ogg",
	quiz.EventSessionWon: "won.ogg",
}

// CuePlayer sends the sound cue of a session event as a voice message.
type CuePlayer struct {
	sender Sender
	prefs  SoundPreferences
	dir    string
	logger *zap.Logger
}

func NewCuePlayer(sender Sender, prefs SoundPreferences, dir string, logger *zap.Logger) *CuePlayer {
	return &CuePlayer{
		sender: sender,
		prefs:  prefs,
		dir:    dir,
		logger: logger,
	}
}

// Play sends the cue of kind to chatID unless the user muted sounds
// or the cue file is missing.
func (p *CuePlayer) Play(ctx context.Context, chatID, userID int64, kind quiz.EventKind) {
	path, ok := p.path(kind)
	if !ok {
		return
	}

	settings, err := p.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		p.logger.Warn("failed to get sound preference",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return
	}
	if !settings.SoundEnabled {
		return
	}

	voice := tgbotapi.NewVoice(chatID, tgbotapi.FilePath(path))
	voice.DisableNotification = true

	if _, err := p.sender.Send(voice); err != nil {
		p.logger.Warn("failed to send sound cue",
			zap.String("cue", string(kind)),
			zap.Error(err),
		)
	}
}

// path returns the cue file of kind if it exists.
func (p *CuePlayer) path(kind quiz.EventKind) (string, bool) {
	name, ok := cueFiles[kind]
	if !ok {
		return "", false
	}

	path := filepath.Join(p.dir, name)
	if _, err := os.Stat(path); err != nil {
		p.logger.Debug("sound cue missing", zap.String("path", path))
		return "", false
	}

	return path, true
}
