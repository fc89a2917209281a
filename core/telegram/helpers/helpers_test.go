package helpers

import (
	"testing"

	"github.com/m3rciful/phonebook/core/logger"
	"github.com/m3rciful/phonebook/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	values map[string]any
	cb     *tele.Callback
	sent   []string
	edited []string
}

func newStub() *stubContext { return &stubContext{values: map[string]any{}} }

func (s *stubContext) Update() tele.Update      { return tele.Update{ID: 36} }
func (s *stubContext) Sender() *tele.User       { return &tele.User{ID: 1} }
func (s *stubContext) Chat() *tele.Chat         { return &tele.Chat{ID: 35} }
func (s *stubContext) Callback() *tele.Callback { return s.cb }
func (s *stubContext) Get(k string) any         { return s.values[k] }
func (s *stubContext) Set(k string, v any)      { s.values[k] = v }

func (s *stubContext) Send(what any, _ ...any) error {
	s.sent = append(s.sent, what.(string))
	return nil
}

func (s *stubContext) EditOrSend(what any, _ ...any) error {
	s.edited = append(s.edited, what.(string))
	return nil
}

func TestBuildContextCarriesMeta(t *testing.T) {
	c := newStub()
	ctx := BuildContext(c)
	m := logger.MetaFrom(ctx)
	if m.RID != "10.z.1" || m.UpdateID != 36 || m.ChatID != 35 || m.UserID != 1 {
		t.Fatalf("meta = %+v", m)
	}
	if BuildContext(c) != ctx {
		t.Fatal("context should be cached on the update")
	}
	tagged := WithHandler(c, "dialogue")
	if logger.MetaFrom(tagged).Handler != "dialogue" || BuildContext(c) != tagged {
		t.Fatal("handler tag should be stored")
	}
}

func TestSendHelpersInline(t *testing.T) {
	SetDispatcher(nil)
	c := newStub()
	if err := SendPlain(c, "hello", &tele.ReplyMarkup{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := EditOrSendPlain(c, "no callback"); err != nil {
		t.Fatalf("edit fallback: %v", err)
	}
	c.cb = &tele.Callback{Data: "\fmain_menu"}
	if err := EditOrSendPlain(c, "menu"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(c.sent) != 2 || len(c.edited) != 1 || c.edited[0] != "menu" {
		t.Fatalf("sent=%v edited=%v", c.sent, c.edited)
	}
}

func TestSendHelpersThroughDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Lanes: 2})
	SetDispatcher(d)
	defer SetDispatcher(nil)

	c := newStub()
	for _, text := range []string{"one", "two", "three"} {
		if err := SendPlain(c, text); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	d.Close()
	if len(c.sent) != 3 || c.sent[0] != "one" || c.sent[2] != "three" {
		t.Fatalf("sent = %v", c.sent)
	}

	if err := SendPlain(c, "after close"); err != nil {
		t.Fatalf("closed dispatcher should fall back inline: %v", err)
	}
	if c.sent[3] != "after close" {
		t.Fatalf("sent = %v", c.sent)
	}
}
