package logger

import "strings"

// Canonical level names written to the "level" field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

func levelName(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return strings.ToUpper(raw)
}

func statusName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// defaultKeyOrder puts envelope keys first, then update metadata, then the
// directory and dialogue fields. Unlisted keys follow alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "ts_unix_nano", "update_id", "user_id", "chat_id", "chat_type", "handler",
	"op", "cb_key", "duration_ms", "messages", "kb", "count",
	"contact_id", "step", "prev_step", "region", "profession", "total", "truncated",
	"driver", "backend", "db", "host", "port", "mode", "listen", "public_url",
	"payload", "username", "value",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms",
	"rate_limited", "collapsed", "repeats",
}
