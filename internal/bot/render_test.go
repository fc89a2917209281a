package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/phonebook/core/telegram/callbacks"
	"github.com/m3rciful/phonebook/internal/directory"

	tele "gopkg.in/telebot.v4"
)

func ptr(s string) *string { return &s }

func TestRenderRegion(t *testing.T) {
	got := renderRegion("Tashkent", []directory.Contact{
		{ID: 1, Name: "Ali", Phone: "+998", Profession: ptr("doctor"), Region: ptr("Tashkent")},
		{ID: 2, Name: "Vali", Phone: "+997"},
	})
	want := "📍 Contacts in Tashkent:\n\n" +
		"👤 Ali\n📞 +998\n💼 doctor\n🌍 Tashkent\n\n" +
		"👤 Vali\n📞 +997\n💼 -\n🌍 -"
	assert.Equal(t, want, got)
}

func TestRenderEmptyResults(t *testing.T) {
	assert.Equal(t, "❌ No contacts found in Samarkand.", renderRegion("Samarkand", nil))
	assert.Equal(t, "❌ Nobody working as pilot was found.", renderProfession("pilot", []directory.Contact{}))
	assert.Equal(t, msgNoContacts, renderRecent(directory.Listing{}))
}

func TestRenderRecent(t *testing.T) {
	contacts := []directory.Contact{{ID: 1, Name: "A", Phone: "1"}}

	all := renderRecent(directory.Listing{Contacts: contacts, Total: 1})
	assert.True(t, strings.HasPrefix(all, "📋 All contacts:\n\n"))
	assert.NotContains(t, all, "⚠️")

	cut := renderRecent(directory.Listing{Contacts: contacts, Total: 12, Truncated: true})
	assert.True(t, strings.HasPrefix(cut, "📋 Last 1 contacts:\n\n"))
	assert.True(t, strings.HasSuffix(cut, "⚠️ Only the last 1 of 12 contacts are shown"))
}

func TestRenderRecentKeepsFooterWhenClipped(t *testing.T) {
	long := strings.Repeat("x", 1000)
	contacts := make([]directory.Contact, 10)
	for i := range contacts {
		contacts[i] = directory.Contact{ID: int64(i + 1), Name: long, Phone: "1"}
	}
	got := renderRecent(directory.Listing{Contacts: contacts, Total: 40, Truncated: true})

	assert.LessOrEqual(t, utf8.RuneCountInString(got), maxMessageLen)
	assert.True(t, strings.HasSuffix(got, "⚠️ Only the last 10 of 40 contacts are shown"))
	assert.Contains(t, got, "…")
}

func TestRenderStatsAndHelp(t *testing.T) {
	assert.Equal(t, "📊 Directory\nContacts: 3\nRegions: 2\nProfessions: 1",
		renderStats(directory.Stats{Contacts: 3, Regions: 2, Professions: 1}))

	help := renderHelp([]tele.Command{
		{Text: "/add", Description: "Add a contact"},
		{Text: "/help", Description: "Show available commands"},
	})
	assert.Equal(t, "Available commands:\n/add - Add a contact\n/help - Show available commands", help)
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello, Aziz! I manage a shared contact directory.", greeting(&tele.User{FirstName: " Aziz "}))
	assert.Equal(t, "Hello! I manage a shared contact directory.", greeting(nil))
}

func TestPickerButtonsSortedAndBounded(t *testing.T) {
	tooLong := strings.Repeat("r", callbacks.MaxDataLen)
	buttons := pickerButtons(context.Background(), cbRegion, []string{"Namangan", tooLong, "Andijan", "  "})

	require.Len(t, buttons, 2)
	assert.Equal(t, "Andijan", buttons[0].Text)
	assert.Equal(t, "Andijan", buttons[0].Data)
	assert.Equal(t, cbRegion, buttons[0].Unique)
	assert.Equal(t, "Namangan", buttons[1].Text)

	markup := pickerMarkup(buttons)
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Equal(t, cbSearchContacts, markup.InlineKeyboard[2][0].Unique)
}

func TestMenus(t *testing.T) {
	uniques := func(m *tele.ReplyMarkup) []string {
		var out []string
		for _, row := range m.InlineKeyboard {
			for _, b := range row {
				out = append(out, b.Unique)
			}
		}
		return out
	}
	assert.Equal(t, []string{cbAddContact, cbSearchContacts, cbSearchByRegion, cbSearchByProfession}, uniques(mainMenu()))
	assert.Equal(t, []string{cbSearchByRegion, cbSearchByProfession, cbAllContacts, cbMainMenu}, uniques(searchMenu()))
	assert.Equal(t, []string{cbSearchContacts}, uniques(backToSearch()))
	assert.Equal(t, []string{cbCancel}, uniques(promptMarkup()))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 3))
	assert.Equal(t, "ab…", clip("abcd", 3))
	assert.Equal(t, "abcd", clip("abcd", 0))
	s := strings.Repeat("й", 10)
	assert.Equal(t, fmt.Sprintf("%s…", strings.Repeat("й", 4)), clip(s, 5))
}
