package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const tallyKey = "reply_tally"

// replyTally counts the replies produced while serving one update. Sends may
// complete on dispatcher goroutines, so the counters are atomic.
type replyTally struct {
	sent     atomic.Int32
	keyboard atomic.Bool
}

func (t *replyTally) record(opts []any) {
	t.sent.Add(1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				t.keyboard.Store(true)
			}
		case *tele.ReplyMarkup:
			if v != nil {
				t.keyboard.Store(true)
			}
		}
	}
}

// countingContext counts successful sends and edits.
type countingContext struct {
	tele.Context
	tally *replyTally
}

func (c countingContext) count(err error, opts []any) error {
	if err == nil {
		c.tally.record(opts)
	}
	return err
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.count(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.count(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.count(c.Context.EditOrReply(what, opts...), opts)
}

// ReplyCounterMiddleware installs a reply tally read back by GetCounters.
func ReplyCounterMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		t := &replyTally{}
		c.Set(tallyKey, t)
		return next(countingContext{Context: c, tally: t})
	}
}

// GetCounters reports how many replies were sent for the update and whether
// any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	t, _ := c.Get(tallyKey).(*replyTally)
	if t == nil {
		return 0, false
	}
	return int(t.sent.Load()), t.keyboard.Load()
}
