// Package app assembles the phonebook bot from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/m3rciful/phonebook/core/bootstrap"
	corecmd "github.com/m3rciful/phonebook/core/cmd"
	coredatabase "github.com/m3rciful/phonebook/core/database"
	"github.com/m3rciful/phonebook/core/logger"
	tg "github.com/m3rciful/phonebook/core/telegram"
	"github.com/m3rciful/phonebook/core/telegram/router"
	"github.com/m3rciful/phonebook/core/telegram/state"
	"github.com/m3rciful/phonebook/internal/bot"
	"github.com/m3rciful/phonebook/internal/directory"
	"github.com/m3rciful/phonebook/internal/session"
)

// App holds the wired services of a running bot.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	redis    *redis.Client
	store    directory.Store
	dir      *directory.Service
	sessions *session.Manager
	handler  *bot.Handler
	registry *tg.Registry
}

// Deps overrides infrastructure constructors. Zero values use the defaults.
type Deps struct {
	Bootstrap   func(bootstrap.Options) (*bootstrap.Result, error)
	RedisClient func(ctx context.Context, cfg RedisConfig) (*redis.Client, error)
}

// New initializes logging, storage and the session table for cfg.
func New(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	runBootstrap := deps.Bootstrap
	if runBootstrap == nil {
		runBootstrap = bootstrap.Run
	}
	newRedis := deps.RedisClient
	if newRedis == nil {
		newRedis = dialRedis
	}

	opts := bootstrap.Options{Config: &cfg.Config}
	if cfg.Storage.Driver == StorageDriverPostgres {
		db := cfg.Database
		opts.Database = &db
	}
	infra, err := runBootstrap(opts)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, infra: infra, registry: tg.NewRegistry()}
	if infra.DB != nil {
		a.store = directory.NewPostgresStore(infra.DB)
	} else {
		a.store = directory.NewMemoryStore()
	}
	a.dir = directory.NewService(a.store, cfg.Directory.RecentLimit)

	var sessions state.Store[session.Session]
	switch cfg.Session.Backend {
	case SessionBackendRedis:
		client, err := newRedis(context.Background(), cfg.Session.Redis)
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("app: session backend: %w", err)
		}
		a.redis = client
		sessions = state.NewRedisStore[session.Session](client, cfg.Session.Redis.KeyPrefix, cfg.Session.IdleTimeout)
	default:
		sessions = state.NewMemoryStore[session.Session](cfg.Session.IdleTimeout)
	}
	a.sessions = session.NewManager(sessions, a.dir)

	a.handler = bot.New(a.dir, a.sessions)
	if err := a.handler.Register(a.registry, bot.Options{AdminID: cfg.Telegram.AdminID}); err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Info(logger.Background(), "app", "app.wired",
		slog.String("status", "ok"),
		slog.String("driver", cfg.Storage.Driver),
		slog.String("backend", cfg.Session.Backend),
		slog.Int("recent_limit", a.dir.RecentLimit()),
		slog.Duration("idle_timeout", cfg.Session.IdleTimeout),
	)
	return a, nil
}

// Bootstrap adapts New to the command runner.
func Bootstrap(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	c, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", cfg)
	}
	return New(c, Deps{})
}

// Load adapts LoadConfig to the command runner.
func Load(path string) (corecmd.ConfigCarrier, error) {
	return LoadConfig(path)
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *tg.Registry { return a.registry }

// TelegramRunOptions builds the middleware chain and routes for the bot runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	cmdOpts := router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: a.handler.AdminRejected,
	}
	routes := router.CommandRoutes(a.registry, cmdOpts)
	routes = append(routes, router.TextRoutes(a.handler, a.registry, router.TextOptions{Commands: cmdOpts})...)
	routes = append(routes, router.CallbackRoute(a.registry))

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, a.handler.RateLimited),
		Routes:      routes,
		OnStop: func(context.Context, tg.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.infra != nil {
		errs = append(errs, a.infra.Close())
	}
	return errors.Join(errs...)
}

func dialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return state.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
}

// Migrate applies the schema migrations for the Postgres store and exits.
func Migrate(cfg *Config) error {
	if cfg.Storage.Driver != StorageDriverPostgres {
		return fmt.Errorf("app: migrations need storage.driver %q, got %q", StorageDriverPostgres, cfg.Storage.Driver)
	}
	if err := logger.InitLogger(&cfg.Config); err != nil {
		return fmt.Errorf("app: logger init failed: %w", err)
	}
	defer func() { _ = logger.Shutdown() }()
	return coredatabase.RunMigrations(cfg.Database)
}
