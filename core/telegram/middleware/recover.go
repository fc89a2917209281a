package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/phonebook/core/logger"
	tghelpers "github.com/m3rciful/phonebook/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware logs a handler panic with its stack and swallows it.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
				slog.String("status", "fail"),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}()
		return next(c)
	}
}
