package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/phonebook/core/config"
	coredatabase "github.com/m3rciful/phonebook/core/database"
	"github.com/m3rciful/phonebook/internal/directory"
)

const (
	// StorageDriverPostgres keeps contacts in PostgreSQL.
	StorageDriverPostgres = "postgres"
	// StorageDriverMemory keeps contacts in process memory; data is lost on exit.
	StorageDriverMemory = "memory"

	// SessionBackendMemory keeps dialogue state in process memory.
	SessionBackendMemory = "memory"
	// SessionBackendRedis keeps dialogue state in Redis, shared between replicas.
	SessionBackendRedis = "redis"
)

// StorageConfig selects the contact store.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
}

// DirectoryConfig tunes directory listings.
type DirectoryConfig struct {
	RecentLimit int `yaml:"recent_limit" envconfig:"DIRECTORY_RECENT_LIMIT"`
}

// RedisConfig points at the Redis session backend.
type RedisConfig struct {
	Addr      string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password  string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" envconfig:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" envconfig:"REDIS_KEY_PREFIX"`
}

// SessionConfig configures the add-contact dialogue state.
type SessionConfig struct {
	Backend string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	// IdleTimeout drops unfinished dialogues after this long without input.
	// Zero keeps them until commit or cancel.
	IdleTimeout time.Duration `yaml:"idle_timeout" envconfig:"SESSION_IDLE_TIMEOUT"`
	Redis       RedisConfig   `yaml:"redis"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Storage   StorageConfig       `yaml:"storage"`
	Directory DirectoryConfig     `yaml:"directory"`
	Session   SessionConfig       `yaml:"session"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads YAML and environment overrides, then validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the application sections and fills defaults.
func (c *Config) Normalize() error {
	driver := strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if driver == "" {
		driver = StorageDriverPostgres
	}
	switch driver {
	case StorageDriverPostgres:
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when storage.driver is %q", StorageDriverPostgres)
		}
		if c.Database.Port == "" {
			c.Database.Port = "5432"
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: postgres, memory", c.Storage.Driver)
	}
	c.Storage.Driver = driver

	if c.Directory.RecentLimit < 0 {
		return fmt.Errorf("directory.recent_limit must be >= 0")
	}
	if c.Directory.RecentLimit == 0 {
		c.Directory.RecentLimit = directory.DefaultRecentLimit
	}

	backend := strings.ToLower(strings.TrimSpace(c.Session.Backend))
	if backend == "" {
		backend = SessionBackendMemory
	}
	switch backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if strings.TrimSpace(c.Session.Redis.Addr) == "" {
			return fmt.Errorf("session.redis.addr is required when session.backend is %q", SessionBackendRedis)
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", c.Session.Backend)
	}
	c.Session.Backend = backend

	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("session.idle_timeout must be >= 0")
	}
	return nil
}
