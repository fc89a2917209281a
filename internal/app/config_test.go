package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/phonebook/core/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
database:
  host: db
  name: phonebook
  user: bot
storage:
  driver: Postgres
directory:
  recent_limit: 5
session:
  backend: redis
  idle_timeout: 30m
  redis:
    addr: "redis:6379"
    key_prefix: "pb:"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 5, cfg.Directory.RecentLimit)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "pb:", cfg.Session.Redis.KeyPrefix)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("DB_HOST", "env-db")
	path := writeConfig(t, "telegram:\n  token: \"t\"\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 90*time.Second, cfg.Session.IdleTimeout)
	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, 10, cfg.Directory.RecentLimit)
}

func TestNormalizeErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"postgres without host", Config{}, "database.host"},
		{"unknown driver", Config{Storage: StorageConfig{Driver: "sqlite"}}, "storage.driver"},
		{"negative limit", Config{Storage: StorageConfig{Driver: "memory"}, Directory: DirectoryConfig{RecentLimit: -1}}, "recent_limit"},
		{"redis without addr", Config{Storage: StorageConfig{Driver: "memory"}, Session: SessionConfig{Backend: "redis"}}, "session.redis.addr"},
		{"unknown backend", Config{Storage: StorageConfig{Driver: "memory"}, Session: SessionConfig{Backend: "etcd"}}, "session.backend"},
		{"negative idle", Config{Storage: StorageConfig{Driver: "memory"}, Session: SessionConfig{IdleTimeout: -time.Second}}, "idle_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Normalize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
