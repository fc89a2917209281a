package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/phonebook/core/logger"
)

const (
	migrateComponent  = "db.migrate"
	defaultMigrations = "migrations"
	readyTimeout      = 30 * time.Second
	migrationPreview  = 6
	upMigrationSuffix = ".up.sql"
)

// migration is one *.up.sql file.
type migration struct {
	version uint64
	name    string
}

// scanMigrations lists the up migrations in dir ordered by version. Files
// without a numeric prefix sort first with version 0.
func scanMigrations(dir string) []migration {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, upMigrationSuffix) {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, _ := strconv.ParseUint(prefix, 10, 64)
		out = append(out, migration{version: v, name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].version != out[j].version {
			return out[i].version < out[j].version
		}
		return out[i].name < out[j].name
	})
	return out
}

// between returns the names of migrations in (from, to].
func between(set []migration, from, to uint64) []string {
	var names []string
	for _, m := range set {
		if m.version > from && m.version <= to {
			names = append(names, m.name)
		}
	}
	return names
}

func migrationsPath(dir string) (string, error) {
	if dir == "" {
		dir = defaultMigrations
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return abs, nil
}

func filesAttrs(names []string) []slog.Attr {
	preview, truncated := logger.SummarizeStrings(names, migrationPreview)
	attrs := []slog.Attr{slog.Int("count", len(names))}
	if preview != "" {
		attrs = append(attrs, slog.String("value", preview))
	}
	if truncated {
		attrs = append(attrs, slog.Bool("truncated", true))
	}
	return attrs
}

// RunMigrations waits for the server and applies every pending up migration
// from cfg.MigrationsDir.
func RunMigrations(cfg Config) error {
	ctx := logger.Background()
	fail := func(stage string, err error) error {
		logger.Error(ctx, migrateComponent, "db.migrate",
			slog.String("op", stage),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migrations %s: %w", stage, err)
	}

	dsn := cfg.URL()
	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	err := waitReady(readyCtx, dsn, 2*time.Second)
	cancel()
	if err != nil {
		return fail("wait", err)
	}

	dir, err := migrationsPath(cfg.MigrationsDir)
	if err != nil {
		return fail("resolve", err)
	}
	set := scanMigrations(dir)
	names := make([]string, len(set))
	for i, m := range set {
		names[i] = m.name
	}
	logger.Debug(ctx, migrateComponent, "migrate.resolve",
		append(filesAttrs(names), slog.String("payload", dir))...)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		return fail("init", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn(ctx, migrateComponent, "migrate.close",
				slog.String("err", errors.Join(srcErr, dbErr).Error()))
		}
	}()

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fail("version", err)
	}
	if dirty {
		return fail("version", fmt.Errorf("database is dirty at version %d", from))
	}

	start := time.Now()
	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, migrateComponent, "migrate.apply",
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", upErr.Error()),
		)
		return fmt.Errorf("migrations apply: %w", upErr)
	}

	to := from
	if upErr == nil {
		if v, _, err := m.Version(); err == nil {
			to = v
		}
	}
	applied := between(set, uint64(from), uint64(to))
	logger.Info(ctx, migrateComponent, "migrate.summary",
		append(filesAttrs(applied),
			slog.String("status", "ok"),
			slog.Uint64("from_ver", uint64(from)),
			slog.Uint64("to_ver", uint64(to)),
			slog.Duration("duration", logger.Took(start)),
		)...)
	return nil
}
