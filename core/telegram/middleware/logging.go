package middleware

import (
	"log/slog"
	"sync"

	"github.com/m3rciful/phonebook/core/logger"
	"github.com/m3rciful/phonebook/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/phonebook/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers the most recent update ids so a receipt is logged
// once even when the middleware wraps several routes.
type seenUpdates struct {
	mu   sync.Mutex
	ring [256]int
	set  map[int]struct{}
	next int
}

func (s *seenUpdates) mark(id int) (dup bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		s.set = make(map[int]struct{}, len(s.ring))
	}
	if _, ok := s.set[id]; ok {
		return true
	}
	if old := s.ring[s.next]; old != 0 {
		delete(s.set, old)
	}
	s.ring[s.next] = id
	s.set[id] = struct{}{}
	s.next = (s.next + 1) % len(s.ring)
	return false
}

var received seenUpdates

// LoggerMiddleware stores the request context on c and logs a sampled
// update.received line with what the user sent.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		meta := tghelpers.MetaOf(c)
		ctx := logger.WithMeta(logger.Background(), meta)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && !received.mark(meta.UpdateID) {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil && u.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
	}
	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.Parse(cb)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
		return attrs
	}
	if text := c.Text(); text != "" {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(text, 256)))
	}
	return attrs
}
