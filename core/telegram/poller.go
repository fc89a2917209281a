package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/phonebook/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultPollTimeout = 10 * time.Second

// allowedUpdates limits delivery to the update types the bot handles.
var allowedUpdates = []string{"message", "callback_query"}

// WebhookOptions declares the webhook listener.
type WebhookOptions struct {
	Listen      string
	Port        int
	URL         string
	SecretToken string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode     string
	PollTimeout time.Duration
	Webhook     WebhookOptions
}

// PollerOptionsFrom reads poller settings from cfg.
func PollerOptionsFrom(cfg *coreconfig.Config) PollerOptions {
	return PollerOptions{
		RunMode:     cfg.Telegram.RunMode,
		PollTimeout: time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second,
		Webhook: WebhookOptions{
			Listen:      cfg.Webhook.Listen,
			Port:        cfg.Webhook.Port,
			URL:         cfg.Webhook.URL,
			SecretToken: cfg.Webhook.SecretToken,
		},
	}
}

func (o PollerOptions) webhook() bool {
	return strings.EqualFold(strings.TrimSpace(o.RunMode), coreconfig.RunModeWebhook)
}

func (o PollerOptions) pollTimeout() time.Duration {
	if o.PollTimeout <= 0 {
		return defaultPollTimeout
	}
	return o.PollTimeout
}

// BuildPoller returns a webhook listener or a long poller.
func BuildPoller(opts PollerOptions) tele.Poller {
	if opts.webhook() {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
			SecretToken:    opts.Webhook.SecretToken,
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: opts.pollTimeout(), AllowedUpdates: allowedUpdates}
}
