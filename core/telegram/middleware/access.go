package middleware

import (
	"log/slog"

	"github.com/m3rciful/phonebook/core/logger"
	tghelpers "github.com/m3rciful/phonebook/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions configures AdminOnlyMiddleware.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only AdminID through. A zero AdminID disables the check.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.AdminID == 0 {
				return next(c)
			}
			if u := c.Sender(); u != nil && u.ID == opts.AdminID {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "admin.reject",
				slog.String("status", "skip"),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
