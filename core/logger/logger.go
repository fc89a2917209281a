// Package logger provides the structured slog setup shared by every component.
// Records carry a component and an event name plus the update metadata found
// in the context, and are written asynchronously as JSON or key=value lines.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/phonebook/core/buildinfo"
	coreconfig "github.com/m3rciful/phonebook/core/config"
)

var (
	initOnce sync.Once

	stateMu sync.Mutex
	writer  *asyncWriter
	closers []io.Closer
	stopped bool

	levelVar     slog.LevelVar
	debugSampler = newRatioSampler(1, 50)
	traceAll     atomic.Bool

	components sync.Map

	// L is the root logger. It stays nil until InitLogger succeeds.
	L *slog.Logger
)

// InitLogger configures the global structured logger. Calls after the first are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		opts := resolveOptions(cfg)
		sinks, files, err := openSinks(opts)
		if err != nil {
			initErr = err
			return
		}

		levelVar.Set(opts.level)
		debugSampler.Set(opts.sampleNum, opts.sampleDen)
		traceAll.Store(envFlag("TRACE") || envFlag("LOG_TRACE"))

		stateMu.Lock()
		writer = newAsyncWriter(sinks, 64*1024)
		closers = files
		stateMu.Unlock()

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   writer,
			format:   opts.format,
			keyOrder: opts.keyOrder,
		}))
		slog.SetDefault(L)

		build := buildinfo.Get()
		Info(context.Background(), "app", "startup",
			slog.String("go_version", build.GoVersion),
			slog.String("build_version", build.Version),
			slog.String("build_commit", build.Commit),
			slog.String("build_time", build.Date),
			slog.String("cfg_profile", opts.profile),
		)
	})
	return initErr
}

// Shutdown flushes pending output and closes the log file.
func Shutdown() error {
	stateMu.Lock()
	defer stateMu.Unlock()
	if stopped {
		return nil
	}
	stopped = true

	var errs []error
	if writer != nil {
		errs = append(errs, writer.Close())
	}
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Background is shorthand for context.Background at call sites without an update.
func Background() context.Context {
	return context.Background()
}

// Component returns L scoped to name. Loggers are cached per component.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	if cached, ok := components.Load(name); ok {
		return cached.(*slog.Logger)
	}
	scoped, _ := components.LoadOrStore(name, L.With("component", name))
	return scoped.(*slog.Logger)
}

// LogEvent writes event through logg, or the context logger when logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Event logs event for component. Nothing is written before InitLogger.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug-level event.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug event should be written.
// TRACE=1 or LOG_TRACE=1 lets every event through.
func ShouldSampleDebug() bool {
	return traceAll.Load() || debugSampler.Allow()
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
