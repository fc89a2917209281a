package bot

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/phonebook/core/logger"
	"github.com/m3rciful/phonebook/core/telegram/callbacks"
	"github.com/m3rciful/phonebook/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Callback keys. Buttons encode as \f<key>|<payload>.
const (
	cbMainMenu           = "main_menu"
	cbAddContact         = "add_contact"
	cbSearchContacts     = "search_contacts"
	cbSearchByRegion     = "search_by_region"
	cbSearchByProfession = "search_by_profession"
	cbRegion             = "region"
	cbProfession         = "profession"
	cbAllContacts        = "all_contacts"
	cbCancel             = "cancel"
)

func mainMenu() *tele.ReplyMarkup {
	return keyboard.Column(
		keyboard.Button{Text: "➕ Add contact", Unique: cbAddContact},
		keyboard.Button{Text: "🔍 Search contacts", Unique: cbSearchContacts},
		keyboard.Button{Text: "📍 Search by region", Unique: cbSearchByRegion},
		keyboard.Button{Text: "👨‍⚕️ Search by profession", Unique: cbSearchByProfession},
	)
}

func searchMenu() *tele.ReplyMarkup {
	return keyboard.Column(
		keyboard.Button{Text: "📍 By region", Unique: cbSearchByRegion},
		keyboard.Button{Text: "👨‍⚕️ By profession", Unique: cbSearchByProfession},
		keyboard.Button{Text: "🔍 All contacts", Unique: cbAllContacts},
		keyboard.Button{Text: "◀️ Back", Unique: cbMainMenu},
	)
}

func backToSearch() *tele.ReplyMarkup {
	return keyboard.Column(
		keyboard.Button{Text: "🔙 Back to search", Unique: cbSearchContacts},
	)
}

func promptMarkup() *tele.ReplyMarkup {
	return keyboard.Cancel(cbCancel)
}

// pickerButtons turns distinct values into one button each, sorted. Values
// that cannot be a button label or do not fit into callback data are left out.
func pickerButtons(ctx context.Context, key string, values []string) []keyboard.Button {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)

	out := make([]keyboard.Button, 0, len(sorted))
	for _, v := range sorted {
		if strings.TrimSpace(v) == "" || !callbacks.Fits(key, v) {
			logger.Warn(ctx, "tg.handler", "picker.skip",
				slog.String("cb_key", key),
				slog.String("value", logger.SanitizeLimit(v, 64)),
				slog.Int("size", len(v)),
			)
			continue
		}
		out = append(out, keyboard.Button{Text: v, Unique: key, Data: v})
	}
	return out
}

func pickerMarkup(buttons []keyboard.Button) *tele.ReplyMarkup {
	return keyboard.Grid(buttons, 1, keyboard.Button{Text: "◀️ Back", Unique: cbSearchContacts})
}
