package logger

import (
	"context"
	"log/slog"
	"strconv"
)

type ctxKey int

const (
	metaKey ctxKey = iota
	loggerKey
)

// Meta identifies the Telegram update a log line belongs to.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
}

// BuildRID returns the correlation id for an update: base36 update, chat and
// user ids joined with dots.
func BuildRID(updateID int, chatID, userID int64) string {
	return strconv.FormatInt(int64(updateID), 36) + "." +
		strconv.FormatInt(chatID, 36) + "." +
		strconv.FormatInt(userID, 36)
}

// WithMeta stores update metadata in ctx. An empty RID is derived from the ids.
func WithMeta(ctx context.Context, m Meta) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.RID == "" && (m.UpdateID != 0 || m.ChatID != 0 || m.UserID != 0) {
		m.RID = BuildRID(m.UpdateID, m.ChatID, m.UserID)
	}
	return context.WithValue(ctx, metaKey, m)
}

// MetaFrom returns the update metadata stored in ctx, or the zero Meta.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey).(Meta)
	return m
}

// WithHandler records the handler name serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	m := MetaFrom(ctx)
	m.Handler = handler
	return WithMeta(ctx, m)
}

// WithLogger binds log to ctx so downstream helpers reuse its attributes.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger bound to ctx, falling back to L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return L
}

// appendTo copies non-zero metadata into fields without overriding explicit attrs.
func (m Meta) appendTo(fields map[string]any) {
	put := func(k string, v any, zero bool) {
		if zero {
			return
		}
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	put("rid", m.RID, m.RID == "")
	put("update_id", m.UpdateID, m.UpdateID == 0)
	put("user_id", m.UserID, m.UserID == 0)
	put("chat_id", m.ChatID, m.ChatID == 0)
	put("handler", m.Handler, m.Handler == "")
}
