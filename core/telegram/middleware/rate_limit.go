package middleware

import (
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/phonebook/core/config"
	"github.com/m3rciful/phonebook/core/logger"
	tghelpers "github.com/m3rciful/phonebook/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const sweepEvery = time.Minute

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude holds update kinds, as returned by UpdateKind, that bypass the limit.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// UpdateKind classifies the update behind c for rate limit exclusions.
func UpdateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	}
	return "other"
}

// lastSeen tracks the last accepted update time per user.
type lastSeen struct {
	mu       sync.Mutex
	interval time.Duration
	at       map[int64]time.Time
	sweepAt  time.Time
}

func (l *lastSeen) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.After(l.sweepAt) {
		for id, t := range l.at {
			if now.Sub(t) >= l.interval {
				delete(l.at, id)
			}
		}
		l.sweepAt = now.Add(sweepEvery)
	}
	if t, ok := l.at[userID]; ok && now.Sub(t) < l.interval {
		return false
	}
	l.at[userID] = now
	return true
}

// RateLimitMiddleware drops updates arriving less than Interval after the
// previous accepted update from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	seen := &lastSeen{interval: opts.Interval, at: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c)
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if seen.allow(user.ID, time.Now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("op", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
