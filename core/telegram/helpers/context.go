package helpers

import (
	"context"

	"github.com/m3rciful/phonebook/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxSlot = "phonebook.ctx"

// MetaOf collects the update, chat and user ids of c for logging.
func MetaOf(c tele.Context) logger.Meta {
	m := logger.Meta{UpdateID: c.Update().ID}
	if u := c.Sender(); u != nil {
		m.UserID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		m.ChatID = ch.ID
	}
	m.RID = logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
	return m
}

// StoreContext replaces the request context carried by c.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxSlot, ctx)
	}
}

// BuildContext returns the request context of c, creating it on first use.
// Services receive it so their logs share the update's rid.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxSlot).(context.Context); ok && ctx != nil {
		return ctx
	}
	ctx := logger.WithMeta(context.Background(), MetaOf(c))
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the request context of c with the handler serving it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	StoreContext(c, ctx)
	return ctx
}
