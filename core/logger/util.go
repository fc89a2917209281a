package logger

import (
	"strings"
	"time"
)

// Took reports the time elapsed since start, rounded for logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to whole milliseconds. Non-positive durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values and reports whether any were left out.
func SummarizeStrings(values []string, limit int) (string, bool) {
	n := min(max(limit, 0), len(values))
	return strings.Join(values[:n], ", "), n < len(values)
}
