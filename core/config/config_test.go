package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsToLongpoll(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
rate_limit:
  interval_ms: 300
  exclude_updates: [" Callback "]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}

func TestLoadEnvOverridesToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "999:env")
	path := writeConfig(t, "telegram:\n  token: \"123:file\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "999:env", cfg.Telegram.Token)
}

func TestNormalizeRejectsMissingToken(t *testing.T) {
	err := Normalize(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}
	err := Normalize(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook.url")
}

func TestNormalizeRejectsUnknownExclusion(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline_query"}},
	}
	require.Error(t, Normalize(cfg))
}

func TestNormalizeAcceptsPollingAlias(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestNormalizeWrapsErrInvalid(t *testing.T) {
	err := Normalize(&Config{Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}})
	require.ErrorIs(t, err, ErrInvalid)

	err = Normalize(&Config{Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{IntervalMS: -1}})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoadWebhookFromEnv(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET_TOKEN", "s3cret")
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  run_mode: webhook
webhook:
  url: "https://bot.example.com/hook"
  listen: "0.0.0.0"
  port: 8443
rate_limit:
  exclude_updates: ["", "message"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
	assert.Equal(t, "s3cret", cfg.Webhook.SecretToken)
	assert.Equal(t, []string{UpdateMessage}, cfg.RateLimit.ExcludeUpdates)
}

func TestDecodeMissingFile(t *testing.T) {
	var cfg Config
	err := Decode(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}
