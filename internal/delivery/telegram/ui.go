package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
)

const tablesPerRow = 3

// buildHomeKeyboard builds the table picker: tables 1..9 in a 3x3 grid.
func buildHomeKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var row []tgbotapi.InlineKeyboardButton
	for t := entities.MinTable; t <= entities.MaxTable; t++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(t), buildTableCallback(t)))
		if len(row) == tablesPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⭐ My stars", buildStarsCallback()),
		tgbotapi.NewInlineKeyboardButtonData("🧚 Math fairy", buildFairyCallback(fairyOpen)),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", buildSettingsCallback(settingsMenu)),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildStudyKeyboard builds keyboard for the study view of a table.
func buildStudyKeyboard(table int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Start challenge", buildQuizStartCallback(table)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", buildHomeCallback()),
		),
	)
}

// buildQuizKeyboard builds keyboard for the question message of a live session.
func buildQuizKeyboard(sessionID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Exit", buildQuizExitCallback(sessionID)),
		),
	)
}

// buildQuizResultKeyboard builds keyboard for the completion and exit screens.
func buildQuizResultKeyboard(table int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Play again", buildQuizStartCallback(table)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Home", buildHomeCallback()),
		),
	)
}

func buildFairyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👋 Close the fairy", buildFairyCallback(fairyClose)),
		),
	)
}

func buildSettingsKeyboard(soundEnabled bool) tgbotapi.InlineKeyboardMarkup {
	label := "🔇 Turn sound off"
	if !soundEnabled {
		label = "🔊 Turn sound on"
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildSettingsCallback(settingsSound)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", buildHomeCallback()),
		),
	)
}
