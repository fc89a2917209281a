// Package keyboard builds inline keyboards from plain button descriptions.
package keyboard

import tele "gopkg.in/telebot.v4"

// CancelLabel is the text of the button returned by Cancel.
const CancelLabel = "❌ Cancel"

// Button is one inline button. Unique selects the callback handler and Data
// becomes its payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

func (b Button) inline(m *tele.ReplyMarkup) tele.InlineButton {
	return *m.Data(b.Text, b.Unique, b.Data).Inline()
}

// Rows lays the buttons out exactly as given.
func Rows(rows ...[]Button) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.InlineKeyboard = make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, len(row))
		for i, b := range row {
			line[i] = b.inline(m)
		}
		m.InlineKeyboard = append(m.InlineKeyboard, line)
	}
	return m
}

// Column puts every button on a row of its own.
func Column(buttons ...Button) *tele.ReplyMarkup {
	return Grid(buttons, 1)
}

// Grid fills rows of perRow buttons and appends footer as the last row.
// perRow below one means one button per row.
func Grid(buttons []Button, perRow int, footer ...Button) *tele.ReplyMarkup {
	perRow = max(perRow, 1)
	rows := make([][]Button, 0, len(buttons)/perRow+2)
	for len(buttons) > 0 {
		n := min(perRow, len(buttons))
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	return Rows(append(rows, footer)...)
}

// Cancel is a single-button keyboard that fires unique.
func Cancel(unique string) *tele.ReplyMarkup {
	return Column(Button{Text: CancelLabel, Unique: unique})
}
