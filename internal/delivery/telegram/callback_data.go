package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionHome     = "home"
	actionTable    = "table"
	actionQuiz     = "quiz"
	actionStars    = "stars"
	actionFairy    = "fairy"
	actionSettings = "settings"
)

// Quiz sub-actions.
const (
	quizStart = "start"
	quizExit  = "exit"
)

// Fairy sub-actions.
const (
	fairyOpen  = "open"
	fairyClose = "close"
)

// Settings sub-actions.
const (
	settingsMenu  = "menu"
	settingsSound = "sound"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// param returns the i-th parameter or an empty string.
func (cd callbackData) param(i int) string {
	if i < 0 || i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")

	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

func buildHomeCallback() string {
	return actionHome
}

// buildTableCallback builds callback data for opening the study view of a table.
func buildTableCallback(table int) string {
	return callbackData{
		Action: actionTable,
		Params: []string{strconv.Itoa(table)},
	}.encode()
}

// buildQuizStartCallback builds callback data for starting a quiz on a table.
func buildQuizStartCallback(table int) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizStart, strconv.Itoa(table)},
	}.encode()
}

// buildQuizExitCallback builds callback data for leaving a running quiz.
// Telegram limits callback data to 64 bytes, a UUID session ID fits.
func buildQuizExitCallback(sessionID string) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizExit, sessionID},
	}.encode()
}

func buildStarsCallback() string {
	return actionStars
}

func buildFairyCallback(subAction string) string {
	return callbackData{
		Action: actionFairy,
		Params: []string{subAction},
	}.encode()
}

func buildSettingsCallback(subAction string) string {
	return callbackData{
		Action: actionSettings,
		Params: []string{subAction},
	}.encode()
}
