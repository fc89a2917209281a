package router

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/phonebook/core/logger"
	tghelpers "github.com/m3rciful/phonebook/core/telegram/helpers"
	"github.com/m3rciful/phonebook/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// handled runs fn under handlerName and logs one handler.handled summary.
func handled(c tele.Context, handlerName string, fn func() error, extras ...slog.Attr) error {
	start := time.Now()
	tghelpers.WithHandler(c, handlerName)
	err := fn()
	status := "ok"
	if err != nil {
		status = "fail"
	}
	logSummary(c, handlerName, status, start, err, extras...)
	return err
}

func logSummary(c tele.Context, handlerName, status string, start time.Time, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.Info(ctx, "tg", "handler.handled", append(attrs, extras...)...)
}

func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode prefers a Code() string anywhere in the error chain.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	return "INTERNAL"
}
