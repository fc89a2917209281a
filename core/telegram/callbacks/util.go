// Package callbacks decodes and sizes inline button callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// MaxDataLen is the Telegram limit for callback_data, in bytes.
const MaxDataLen = 64

// Encode renders key and payload the way telebot sends them: \f<key>|<payload>,
// with the separator omitted when payload is empty.
func Encode(key, payload string) string {
	if payload == "" {
		return "\f" + key
	}
	return "\f" + key + "|" + payload
}

// Parse splits callback data into its key and payload. Data that telebot
// already matched keeps the Unique and Data it parsed.
func Parse(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	key, payload, _ = strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	return strings.TrimSpace(key), payload
}

// Payload returns the payload of the pressed button verbatim.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}

// Fits reports whether key and payload encode within MaxDataLen.
func Fits(key, payload string) bool {
	return len(Encode(key, payload)) <= MaxDataLen
}
