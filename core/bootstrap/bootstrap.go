// Package bootstrap brings up process-wide infrastructure in order: the
// logger, then the optional SQL pool and its schema.
package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/phonebook/core/config"
	coredatabase "github.com/m3rciful/phonebook/core/database"
	"github.com/m3rciful/phonebook/core/logger"
)

// Options control the bootstrap pipeline. Nil hooks use the real logger and
// database packages.
type Options struct {
	Config *coreconfig.Config
	// Database is nil when the application keeps no SQL state; connect and
	// migrate are skipped in that case.
	Database *coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

func (o *Options) fillDefaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database pool, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// step times fn and logs its outcome under bootstrap.step.
func step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	attrs := []slog.Attr{
		slog.String("op", name),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.Error(logger.Background(), "bootstrap", "bootstrap.step",
			append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))...)
		return err
	}
	logger.Debug(logger.Background(), "bootstrap", "bootstrap.step",
		append(attrs, slog.String("status", "ok"))...)
	return nil
}

// Run initializes the logger and, when opts.Database is set, connects and
// applies migrations. The pool is closed again if migrations fail.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	opts.fillDefaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.Database == nil {
		logger.Info(logger.Background(), "bootstrap", "db.skip",
			slog.String("status", "skip"),
			slog.String("driver", "memory"),
		)
		return &Result{}, nil
	}
	dbCfg := *opts.Database

	var db *sqlx.DB
	if err := step("connect", func() (err error) {
		db, err = opts.Connect(dbCfg)
		return err
	}); err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	if err := step("migrate", func() error { return opts.Migrate(dbCfg) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return &Result{DB: db}, nil
}
