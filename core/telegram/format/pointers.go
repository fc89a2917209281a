// Package format renders optional values for chat messages.
package format

import "strings"

// Dash stands in for a missing value.
const Dash = "-"

// Or returns *s, or fallback when s is nil or blank.
func Or(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// OrDash is Or with Dash as the fallback.
func OrDash(s *string) string { return Or(s, Dash) }
