package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/m3rciful/phonebook/core/logger"
	"github.com/m3rciful/phonebook/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// queueWait bounds how long a reply waits for room on a full chat lane.
const queueWait = 2 * time.Second

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes replies through d. Nil sends synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// deliver hands run to the dispatcher, or runs it inline when none is set.
// A full lane is waited on for up to queueWait so the reply keeps its place
// behind earlier ones for the chat; only then, or after Close has drained
// the lanes, is it sent inline.
func deliver(c tele.Context, action string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.EnqueueWait(ctx, action, run, queueWait)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("op", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

func plainOptions(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendPlain sends text without a parse mode, with an optional keyboard.
func SendPlain(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := plainOptions(markup)
	return deliver(c, "send.text", func() error {
		return c.Send(text, opts)
	})
}

// EditOrSendPlain replaces the message behind a callback, falling back to a
// new message for text updates or when the edit is rejected.
func EditOrSendPlain(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	if c.Callback() == nil {
		return SendPlain(c, text, markup...)
	}
	opts := plainOptions(markup)
	return deliver(c, "edit.text", func() error {
		return c.EditOrSend(text, opts)
	})
}
