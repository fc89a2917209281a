package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/phonebook/core/logger"
)

const (
	driverName     = "postgres"
	component      = "db"
	connectTimeout = 5 * time.Second
	defaultPool    = 5
	connMaxIdle    = 5 * time.Minute
)

// Connect opens the contact database, sizes the pool and checks that the
// server answers.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(logger.Background(), connectTimeout)
	defer cancel()
	return ConnectContext(ctx, cfg)
}

// ConnectContext is Connect bounded by ctx.
func ConnectContext(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	target := []slog.Attr{
		slog.String("driver", driverName),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, driverName, cfg.KeywordDSN())
	if err != nil {
		logger.Error(ctx, component, "db.connect", append(target,
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pool := cfg.MaxConnections
	if pool <= 0 {
		pool = defaultPool
	}
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)
	db.SetConnMaxIdleTime(connMaxIdle)

	logger.Info(ctx, component, "db.connect", append(target,
		slog.String("status", "ok"),
		slog.Int("count", pool),
		slog.Duration("duration", logger.Took(start)),
	)...)
	return db, nil
}

// waitReady pings dsn until the server answers or ctx ends. The pause between
// attempts doubles up to maxWait.
func waitReady(ctx context.Context, dsn string, maxWait time.Duration) error {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	wait := 250 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		logger.Debug(ctx, component, "db.wait",
			slog.Int("attempts", attempt),
			slog.Duration("backoff", wait),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %d attempts: %w", attempt, err)
		case <-time.After(wait):
		}
		wait = min(wait*2, maxWait)
	}
}
