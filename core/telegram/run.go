package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/phonebook/core/config"
	"github.com/m3rciful/phonebook/core/logger"
	tghelpers "github.com/m3rciful/phonebook/core/telegram/helpers"
	tgsender "github.com/m3rciful/phonebook/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint such as "/start" or tele.OnText.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	HTTPRetries       int

	Middlewares []Middleware
	Routes      []Route

	// DisableWebhookCleanup keeps a previously set webhook when long polling.
	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes running components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram starts the bot and blocks until ctx is cancelled or the poller stops.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	bot, err := newBot(ctx, opts.Config, opts.HTTPRetries)
	if err != nil {
		return err
	}
	if !opts.DisableWebhookCleanup {
		if _, polling := bot.Poller.(*tele.LongPoller); polling {
			clearWebhook(ctx, bot)
		}
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	if err := reg.PublishMenu(bot); err != nil {
		logger.Error(ctx, "tg.wire", "commands.published",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}

	dispatcher := tgsender.NewDispatcher(opts.DispatcherOptions)
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		tghelpers.SetDispatcher(nil)
		dispatcher.Close()
	}()

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		if err := ctx.Err(); !errors.Is(err, context.Canceled) {
			runErr = err
		}
	case <-done:
	}

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	return runErr
}

func newBot(ctx context.Context, cfg *coreconfig.Config, retries int) (*tele.Bot, error) {
	pollOpts := PollerOptionsFrom(cfg)
	poller := BuildPoller(pollOpts)

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(ClientOptions{PollTimeout: pollOpts.pollTimeout(), Retries: retries}),
		OnError: func(err error, c tele.Context) {
			errCtx := ctx
			if c != nil {
				errCtx = tghelpers.BuildContext(c)
			}
			logger.Error(errCtx, "tg", "update.error",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.Duration("duration", time.Since(start)),
	}
	switch p := poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	case *tele.LongPoller:
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.Duration("poll_timeout", p.Timeout),
		)
	}
	logger.Info(ctx, "tg", "mode", attrs...)
	return bot, nil
}

// clearWebhook removes a webhook left from a previous deployment; Telegram
// refuses getUpdates while one is set.
func clearWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.Warn(ctx, "tg", "webhook.delete",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}
	logger.Info(ctx, "tg", "webhook.delete", slog.String("status", "ok"))
}
