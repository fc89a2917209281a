package telegram

import (
	"errors"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/phonebook/core/config"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/search", Command{Handler: noop, Description: "Search", Aliases: []string{"find"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("stats", Command{Handler: noop, Description: "Stats", AdminOnly: true}); err != nil {
		t.Fatalf("register without slash: %v", err)
	}
	if err := reg.RegisterCommand("/find", Command{Handler: noop, Description: "clash"}); err == nil {
		t.Fatal("alias clash should fail")
	}
	if err := reg.RegisterCommand("/help", Command{Handler: noop}); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("missing description err = %v", err)
	}

	if got := len(reg.Commands()); got != 2 {
		t.Fatalf("commands = %d, want 2", got)
	}
	menu := reg.Menu()
	if len(menu) != 1 || menu[0].Text != "/search" {
		t.Fatalf("menu = %+v", menu)
	}
	for _, name := range []string{"/find", "find", "/find@phonebook_bot", "/search"} {
		key, cmd, ok := reg.LookupCommand(name)
		if !ok || key != "/search" || cmd.Description != "Search" {
			t.Fatalf("lookup %q = %q %+v %v", name, key, cmd, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatal("unexpected lookup hit")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("region", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("region", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCallback("", noop); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("invalid registration err = %v", err)
	}
	if _, ok := reg.Callback("region"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.CallbackKeys(); len(got) != 1 || got[0] != "region" {
		t.Fatalf("callbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler missing")
	}
	reg.SetCallbackNotFound(nil)
	if reg.CallbackNotFound() == nil {
		t.Fatal("nil should not replace the not-found handler")
	}
}

func TestBuildPoller(t *testing.T) {
	wh, ok := BuildPoller(PollerOptions{RunMode: "WEBHOOK", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, SecretToken: "s3cret"}}).(*tele.Webhook)
	if !ok || wh.Listen != "0.0.0.0:8443" || wh.SecretToken != "s3cret" {
		t.Fatalf("unexpected webhook: %+v", wh)
	}
	lp, ok := BuildPoller(PollerOptions{}).(*tele.LongPoller)
	if !ok || lp.Timeout != 10*time.Second || len(lp.AllowedUpdates) != 2 {
		t.Fatalf("unexpected poller: %+v", lp)
	}

	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeLongpoll
	cfg.Telegram.LongPollTimeoutSeconds = 25
	if got := PollerOptionsFrom(cfg).pollTimeout(); got != 25*time.Second {
		t.Fatalf("poll timeout = %v", got)
	}
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(chain []Middleware) []string {
		var out []string
		for _, m := range chain {
			out = append(out, m.Name)
		}
		return out
	}
	if got := names(DefaultMiddlewares(nil, nil)); len(got) != 3 || got[1] != "logger" {
		t.Fatalf("chain = %v", got)
	}
	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500, ExcludeUpdates: []string{"callback"}}}
	if got := names(DefaultMiddlewares(cfg, noop)); len(got) != 4 || got[1] != "rate_limit" {
		t.Fatalf("chain = %v", got)
	}
}
