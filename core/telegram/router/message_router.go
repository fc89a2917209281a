package router

import (
	"context"
	"strings"
	"time"

	tg "github.com/m3rciful/phonebook/core/telegram"
	tghelpers "github.com/m3rciful/phonebook/core/telegram/helpers"
	"github.com/m3rciful/phonebook/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation is a multi-step dialogue fed by plain text.
type Conversation interface {
	InProgress(ctx context.Context, userID int64) bool
	HandleText(c tele.Context) error
}

// TextOptions configures TextRoutes.
type TextOptions struct {
	Commands CommandRouteOptions
}

// TextRoutes handles plain text. Slash commands that reach it are resolved
// through the registry and never feed the dialogue. Other text goes to the
// dialogue when one is in progress and is otherwise dropped without a reply.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		text := c.Text()
		if strings.HasPrefix(text, "/") {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(strings.Fields(text)[0]); ok {
					return opts.Commands.bind(key, cmd)(c)
				}
			}
		} else if conv != nil && c.Sender() != nil {
			if conv.InProgress(tghelpers.BuildContext(c), c.Sender().ID) {
				return handled(c, "dialogue", func() error { return conv.HandleText(c) })
			}
		}

		logSummary(c, "unknown_text", "skip", time.Now(), nil)
		return nil
	}

	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}
