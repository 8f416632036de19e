// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/domain/quiz"
	"github.com/aliskhannn/times-table-bot/internal/service"
)

// Plain text messages.
const (
	msgInternalError  = "Something went wrong. Please try again later."
	msgUnknownCommand = "I don't know this command. Send /help to see what I can do."
	msgUseStudy       = "Use: /study 4. Tables go from 1 to 9."
	msgUseQuiz        = "Use: /quiz 4. Tables go from 1 to 9."
	msgAnswerHint     = "Type the answer as a number, for example 12."
	msgNoActiveQuiz   = "Pick a table to play: /start"
	msgQuizOver       = "This quiz is already over."
	msgQuizStopped    = "Quiz stopped."
	msgUseSetKey      = "Use: /setkey <key>. I will delete your message right away."
	msgKeySaved       = "🔑 The fairy key is saved."
	msgKeyCleared     = "🔑 Your personal fairy key is removed."
	msgFairyBusy      = "🧚 The fairy is still thinking about your last question."
	msgFairyBye       = "🧚 Bye! Come back when you have a new question."
	msgStatsEmpty     = "No finished quizzes yet. Pick a table with /start and play!"

	msgHelp = "✖️ Times Table Bot\n\n" +
		"/start - pick a table\n" +
		"/study N - look at table N\n" +
		"/quiz N - play the challenge for table N\n" +
		"/stop - stop the running challenge\n" +
		"/stars - how many stars you have\n" +
		"/stats - results per table\n" +
		"/fairy [question] - ask the math fairy\n" +
		"/setkey KEY - use your own fairy key\n" +
		"/clearkey - forget your fairy key\n" +
		"/settings - sound and other settings"
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without MarkdownV2 parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

func formatWelcome() string {
	return fmt.Sprintf(
		"%s\n\n%s",
		bold("✖️ Welcome to the Times Table!"),
		md("Pick a table to study it, then take the challenge and collect stars ⭐"),
	)
}

// formatStudy renders the study view of a table: one row per multiplier
// followed by as many stars as the multiplier.
func formatStudy(table int) string {
	var sb strings.Builder
	sb.WriteString(bold(fmt.Sprintf("📘 Table of %d", table)))
	sb.WriteString("\n\n")

	for _, row := range entities.StudyRows(table) {
		line := fmt.Sprintf("%d × %d = %d  %s", row.Table, row.Multiplier, row.Product, strings.Repeat("⭐", row.Multiplier))
		sb.WriteString(md(line))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(md("Ready? Start the challenge!"))
	return sb.String()
}

// quizView is what the question message of a live session shows.
type quizView struct {
	Table      int
	Multiplier int
	Position   int
	Score      int
	State      quiz.FeedbackState
	Retry      bool // Wrong feedback just elapsed
	Won        bool
}

func viewFromSnapshot(s quiz.Snapshot) quizView {
	return quizView{
		Table:      s.Table,
		Multiplier: s.Multiplier,
		Position:   s.Position,
		Score:      s.Score,
		State:      s.State,
		Won:        s.Completed,
	}
}

func viewFromEvent(ev quiz.Event) quizView {
	return quizView{
		Table:      ev.Table,
		Multiplier: ev.Multiplier,
		Position:   ev.Position,
		Score:      ev.Score,
		State:      ev.State,
		Retry:      ev.Kind == quiz.EventFeedbackCleared,
		Won:        ev.Kind == quiz.EventSessionWon,
	}
}

// formatQuizView renders the question message of a session.
func formatQuizView(v quizView) string {
	header := fmt.Sprintf(
		"%s\n%s",
		bold(fmt.Sprintf("✖️ Table of %d", v.Table)),
		md(fmt.Sprintf("Question %d / %d   ⭐ %d", v.Position+1, quiz.QuestionCount, v.Score)),
	)

	var prompt, footer string
	switch {
	case v.Won:
		prompt = fmt.Sprintf("%d × %d = %d ✅", v.Table, v.Multiplier, v.Table*v.Multiplier)
		footer = fmt.Sprintf("🎉 All %d questions done!", quiz.QuestionCount)
	case v.State == quiz.Correct:
		prompt = fmt.Sprintf("%d × %d = %d ✅", v.Table, v.Multiplier, v.Table*v.Multiplier)
		footer = "Great job!"
	case v.State == quiz.Wrong:
		prompt = fmt.Sprintf("%d × %d = ? ❌", v.Table, v.Multiplier)
		footer = "Not quite. Look again!"
	case v.Retry:
		prompt = fmt.Sprintf("%d × %d = ?", v.Table, v.Multiplier)
		footer = "Try again, you can do it!"
	default:
		prompt = fmt.Sprintf("%d × %d = ?", v.Table, v.Multiplier)
		footer = "Type your answer."
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", header, bold(prompt), md(footer))
}

// formatCompletion renders the congratulation message of a finished session.
func formatCompletion(s service.QuizSummary) string {
	lines := []string{
		bold(fmt.Sprintf("🎉 You finished the table of %d!", s.Table)),
		"",
		md(fmt.Sprintf("Stars earned: %s %d", "⭐", s.FinalScore)),
		md(fmt.Sprintf("Total stars: %d", s.TotalStars)),
		md(fmt.Sprintf("Mistakes: %d", s.WrongAttempts)),
	}
	if s.Duration > 0 {
		lines = append(lines, md("Time: "+formatDuration(s.Duration)))
	}

	return strings.Join(lines, "\n")
}

func formatAbandoned(score int) string {
	return fmt.Sprintf("%s\n\n%s",
		bold(msgQuizStopped),
		md(fmt.Sprintf("You answered %d of %d. No stars this time, try again!", score, quiz.QuestionCount)),
	)
}

func formatStars(stars int) string {
	return fmt.Sprintf("%s %s", md("⭐ Your stars:"), bold(fmt.Sprintf("%d", stars)))
}

// formatStats renders per-table results of a user.
func formatStats(stats *entities.QuizStats) string {
	var sb strings.Builder
	sb.WriteString(formatStars(stats.Stars))
	sb.WriteString("\n\n")

	if len(stats.Tables) == 0 {
		sb.WriteString(md(msgStatsEmpty))
		return sb.String()
	}

	for _, t := range stats.Tables {
		line := fmt.Sprintf("Table %d: ✅ %d  🚪 %d  ❌ %d", t.Table, t.Completed, t.Abandoned, t.WrongAttempts)
		if t.BestTime > 0 {
			line += "  ⏱ " + formatDuration(t.BestTime)
		}
		sb.WriteString(md(line))
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatSettings renders the settings screen.
func formatSettings(s *entities.UserSettings) string {
	key := "shared"
	if s.HasAPIKey() {
		key = "your own"
	}

	return fmt.Sprintf(
		"%s\n\n%s\n%s",
		bold("⚙️ Settings"),
		md("🔊 Sound: "+formatBool(s.SoundEnabled)),
		md("🔑 Fairy key: "+key),
	)
}

func formatBool(b bool) string {
	if b {
		return "on ✅"
	}
	return "off ❌"
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
