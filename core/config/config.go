package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// SecretToken is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET_TOKEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig throttles each user to one update per IntervalMS. Zero
// disables the limit. ExcludeUpdates lists update kinds that bypass it:
// "callback" for button presses and "message" for text, dialogue answers
// included.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ErrInvalid wraps every validation failure reported by Normalize.
var ErrInvalid = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// runModes maps accepted spellings onto the canonical run mode.
var runModes = map[string]string{
	"":              RunModeLongpoll,
	"polling":       RunModeLongpoll,
	RunModeLongpoll: RunModeLongpoll,
	RunModeWebhook:  RunModeWebhook,
}

// Load reads and validates the core configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode fills dst from the YAML file at path, then lets environment variables
// named in envconfig tags override it. dst must be a pointer to a struct.
func Decode(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("config: env overrides: %w", err)
	}
	return nil
}

// Normalize validates cfg and fills defaults in place.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return invalid("nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return invalid("telegram token is required")
	}
	if err := cfg.normalizeRunMode(); err != nil {
		return err
	}
	return cfg.RateLimit.normalize()
}

func (cfg *Config) normalizeRunMode() error {
	mode, ok := runModes[strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))]
	if !ok {
		return invalid("telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = mode

	if mode == RunModeLongpoll {
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return invalid("telegram.longpoll_timeout_seconds must be >= 0")
		}
		return nil
	}
	wh := cfg.Webhook
	switch {
	case strings.TrimSpace(wh.URL) == "":
		return invalid("webhook.url is required in webhook mode")
	case strings.TrimSpace(wh.Listen) == "":
		return invalid("webhook.listen is required in webhook mode")
	case wh.Port <= 0:
		return invalid("webhook.port must be > 0 in webhook mode")
	}
	return nil
}

func (r *RateLimitConfig) normalize() error {
	if r.IntervalMS < 0 {
		return invalid("rate_limit.interval_ms must be >= 0")
	}
	kept := r.ExcludeUpdates[:0]
	for _, v := range r.ExcludeUpdates {
		switch kind := strings.ToLower(strings.TrimSpace(v)); kind {
		case "":
		case UpdateCallback, UpdateMessage:
			kept = append(kept, kind)
		default:
			return invalid("rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
	}
	r.ExcludeUpdates = kept
	return nil
}
