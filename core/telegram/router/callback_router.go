package router

import (
	"log/slog"

	tg "github.com/m3rciful/phonebook/core/telegram"
	"github.com/m3rciful/phonebook/core/telegram/callbacks"
	"github.com/m3rciful/phonebook/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute dispatches inline button presses by their unique key. Known
// keys are acknowledged after the handler runs. Unknown keys go to the
// registry's not-found handler, which answers the callback itself.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil || reg == nil {
			return nil
		}
		key, _ := callbacks.Parse(c.Callback())
		name := "callback." + handlerName(key)

		fn, ok := reg.Callback(key)
		if !ok || fn == nil {
			return handled(c, name, func() error {
				if nf := reg.CallbackNotFound(); nf != nil {
					return nf(c)
				}
				return c.Respond()
			}, slog.String("cb_key", key), slog.String("cause", "not_found"))
		}
		return handled(c, name, func() error {
			err := fn(c)
			_ = c.Respond()
			return err
		}, slog.String("cb_key", key))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
