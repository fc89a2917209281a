package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/phonebook/core/telegram/format"
	"github.com/m3rciful/phonebook/internal/directory"

	tele "gopkg.in/telebot.v4"
)

// maxMessageLen is the Telegram limit for a text message, in characters.
const maxMessageLen = 4096

const (
	msgPromptName       = "Enter contact name:"
	msgPromptPhone      = "Enter phone number:"
	msgPromptProfession = "Enter profession:"
	msgPromptRegion     = "Enter region (city/district):"
	msgCommitted        = "✅ Contact added successfully!"
	msgCommitFailed     = "⚠️ The contact could not be saved. Please start again later."
	msgCancelled        = "Action cancelled."
	msgMainMenu         = "Main menu:"
	msgSearchMenu       = "Choose a search type:"
	msgPickRegion       = "Choose a region:"
	msgPickProfession   = "Choose a profession:"
	msgNoRegions        = "No regions have been added yet."
	msgNoProfessions    = "No professions have been added yet."
	msgNoContacts       = "❌ No contacts have been added yet."
	msgUnavailable      = "⚠️ The directory is unavailable right now. Please try again later."
	msgUnknownCallback  = "This button is no longer supported"
	msgRateLimited      = "⏳ Too many requests, please slow down."
	msgAdminOnly        = "⛔ This command is available to the administrator only."
)

func greeting(u *tele.User) string {
	name := ""
	if u != nil {
		name = strings.TrimSpace(u.FirstName)
	}
	if name == "" {
		return "Hello! I manage a shared contact directory."
	}
	return fmt.Sprintf("Hello, %s! I manage a shared contact directory.", name)
}

func writeContact(b *strings.Builder, c directory.Contact) {
	fmt.Fprintf(b, "👤 %s\n📞 %s\n💼 %s\n🌍 %s\n\n",
		c.Name, c.Phone, format.OrDash(c.Profession), format.OrDash(c.Region))
}

func renderList(header string, contacts []directory.Contact, limit int) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, c := range contacts {
		writeContact(&b, c)
	}
	return clip(strings.TrimRight(b.String(), "\n"), limit)
}

func renderRegion(region string, contacts []directory.Contact) string {
	if len(contacts) == 0 {
		return fmt.Sprintf("❌ No contacts found in %s.", region)
	}
	return renderList(fmt.Sprintf("📍 Contacts in %s:", region), contacts, maxMessageLen)
}

func renderProfession(profession string, contacts []directory.Contact) string {
	if len(contacts) == 0 {
		return fmt.Sprintf("❌ Nobody working as %s was found.", profession)
	}
	return renderList(fmt.Sprintf("👨‍⚕️ People working as %s:", profession), contacts, maxMessageLen)
}

func renderRecent(l directory.Listing) string {
	if len(l.Contacts) == 0 {
		return msgNoContacts
	}
	if !l.Truncated {
		return renderList("📋 All contacts:", l.Contacts, maxMessageLen)
	}
	n := len(l.Contacts)
	footer := fmt.Sprintf("\n\n⚠️ Only the last %d of %d contacts are shown", n, l.Total)
	limit := maxMessageLen - utf8.RuneCountInString(footer)
	return renderList(fmt.Sprintf("📋 Last %d contacts:", n), l.Contacts, limit) + footer
}

func renderStats(s directory.Stats) string {
	return fmt.Sprintf("📊 Directory\nContacts: %d\nRegions: %d\nProfessions: %d",
		s.Contacts, s.Regions, s.Professions)
}

func renderHelp(list []tele.Command) string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range list {
		fmt.Fprintf(&b, "%s - %s\n", cmd.Text, cmd.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// clip keeps text within limit characters, marking the cut with an ellipsis.
func clip(s string, limit int) string {
	if limit < 1 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
