package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/phonebook/core/config"
	"github.com/m3rciful/phonebook/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain: panic recovery, the optional
// per-user rate limit, request logging and reply counting.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	chain := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
		}
		chain = append(chain, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:   exclude,
				OnLimited: onLimited,
			}),
		})
	}

	return append(chain,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "reply_counter", Use: middleware.ReplyCounterMiddleware},
	)
}
