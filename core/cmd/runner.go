// Package cmd drives a bot process: config, bootstrap, then the Telegram
// runtime until a shutdown signal arrives.
package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/phonebook/core/config"
	"github.com/m3rciful/phonebook/core/logger"
	coretelegram "github.com/m3rciful/phonebook/core/telegram"
)

const defaultConfigEnvVar = "CONFIG_PATH"

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp builds the runtime options of a bootstrapped bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// ConfigPath, when set, wins over ConfigEnvVar and DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	// Signals stop the runtime; SIGINT and SIGTERM when empty.
	Signals []os.Signal

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

func (o Options) signals() []os.Signal {
	if len(o.Signals) > 0 {
		return o.Signals
	}
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

// Run loads configuration, bootstraps the app and serves updates until one of
// the stop signals arrives.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return fmt.Errorf("cmd: LoadConfig and Bootstrap are required")
	}

	application, err := load(opts)
	if err != nil {
		return err
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	runOpts = withLifecycleEvents(runOpts, time.Now())

	ctx, stop := signal.NotifyContext(context.Background(), opts.signals()...)
	defer stop()

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

// load resolves and reads the config, then bootstraps the application. The
// logger is not up yet, so progress goes to the standard log.
func load(opts Options) (TelegramApp, error) {
	path, err := ResolveConfigPath(opts)
	if err != nil {
		return nil, err
	}
	log.Printf("loading config: %s", path)

	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return nil, fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	application, err := opts.Bootstrap(cfg)
	if err != nil {
		return nil, fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	return application, nil
}

// withLifecycleEvents logs app.ready after the app's own OnStart and
// app.shutdown before its OnStop.
func withLifecycleEvents(opts coretelegram.RunOptions, startedAt time.Time) coretelegram.RunOptions {
	onStart, onStop := opts.OnStart, opts.OnStop

	opts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "app.ready",
			slog.String("status", "ok"),
			slog.Duration("duration", logger.Took(startedAt)),
		)
		return nil
	}
	opts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "app.shutdown",
			slog.Duration("duration", logger.Took(startedAt)),
		)
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
	return opts
}

// ResolveConfigPath picks the config file: explicit path, then the
// environment variable (CONFIG_PATH by default), then the default path.
func ResolveConfigPath(opts Options) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	env := opts.ConfigEnvVar
	if env == "" {
		env = defaultConfigEnvVar
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	if opts.DefaultConfigPath != "" {
		return opts.DefaultConfigPath, nil
	}
	return "", fmt.Errorf("cmd: config path not provided via --config, %s or DefaultConfigPath", env)
}
