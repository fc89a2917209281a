package telegram

import (
	"net"
	"net/http"
	"path"
	"time"

	"github.com/m3rciful/phonebook/core/telegram/netutil"
)

const (
	dialTimeout     = 5 * time.Second
	tlsTimeout      = 5 * time.Second
	idleConnTimeout = 90 * time.Second
	responseGrace   = 10 * time.Second
)

// idempotentMethods are Bot API calls that may be repeated after a timeout.
var idempotentMethods = map[string]bool{
	"getMe":          true,
	"getUpdates":     true,
	"setMyCommands":  true,
	"setWebhook":     true,
	"deleteWebhook":  true,
	"getWebhookInfo": true,
}

// ClientOptions tunes BuildHTTPClient.
type ClientOptions struct {
	// PollTimeout is the long-poll wait; response timeouts are stretched past it.
	PollTimeout time.Duration
	Retries     int
	Backoff     time.Duration
}

// BuildHTTPClient returns the client used for Bot API calls.
func BuildHTTPClient(opts ClientOptions) *http.Client {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaultPollTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	wait := opts.PollTimeout + responseGrace

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ResponseHeaderTimeout: wait,
	}
	return &http.Client{
		Timeout:   wait + dialTimeout + tlsTimeout,
		Transport: &retryTransport{base: transport, retries: opts.Retries, backoff: opts.Backoff},
	}
}

// retryTransport repeats requests that failed to connect, and idempotent
// requests that timed out.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	idempotent := idempotentMethods[path.Base(req.URL.Path)]
	for attempt := 1; ; attempt++ {
		try := req
		if attempt > 1 {
			try = req.Clone(req.Context())
			if req.Body != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				try.Body = body
			}
		}

		resp, err := t.base.RoundTrip(try)
		if err == nil {
			return resp, nil
		}
		replayable := req.Body == nil || req.GetBody != nil
		if attempt > t.retries || !replayable || !netutil.ShouldRetry(err, idempotent) {
			return nil, err
		}

		timer := time.NewTimer(t.backoff * time.Duration(attempt))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}
