// Package sender delivers outbound Telegram calls off the update goroutine.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/phonebook/core/logger"
	"github.com/m3rciful/phonebook/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the chat's lane has no room.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options tunes the dispatcher. Zero values pick defaults.
type Options struct {
	// Lanes is the number of workers. Calls for one chat always share a lane,
	// so a user sees replies in the order they were queued.
	Lanes      int
	LaneBuffer int
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between dial retries.
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one call including retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.Lanes <= 0 {
		o.Lanes = 4
	}
	if o.LaneBuffer <= 0 {
		o.LaneBuffer = 64
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 15 * time.Second
	}
	return o
}

type job struct {
	ctx    context.Context
	action string
	run    func() error
}

// Dispatcher runs queued Telegram calls on per-chat lanes with retries.
type Dispatcher struct {
	opts  Options
	lanes []chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	failed atomic.Uint64
}

// NewDispatcher starts the lane workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, lanes: make([]chan job, opts.Lanes)}
	d.wg.Add(opts.Lanes)
	for i := range d.lanes {
		d.lanes[i] = make(chan job, opts.LaneBuffer)
		go d.work(d.lanes[i])
	}
	return d
}

// Enqueue queues run on the lane of the chat found in ctx. It fails with
// ErrQueueFull at once when the lane has no room.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run func() error) error {
	return d.EnqueueWait(ctx, action, run, 0)
}

// EnqueueWait is Enqueue that waits up to wait, or until ctx ends, for room
// on a full lane before giving up with ErrQueueFull.
func (d *Dispatcher) EnqueueWait(ctx context.Context, action string, run func() error, wait time.Duration) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	lane := d.lanes[d.laneFor(logger.MetaFrom(ctx).ChatID)]
	j := job{ctx: ctx, action: action, run: run}
	select {
	case lane <- j:
		return nil
	default:
	}
	if wait <= 0 {
		return ErrQueueFull
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case lane <- j:
		return nil
	case <-timer.C:
		return ErrQueueFull
	case <-ctx.Done():
		return ErrQueueFull
	}
}

// Failed returns the number of calls that gave up.
func (d *Dispatcher) Failed() uint64 {
	return d.failed.Load()
}

// Close stops accepting calls and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, lane := range d.lanes {
		close(lane)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) laneFor(chatID int64) int {
	return int(uint64(chatID) % uint64(len(d.lanes)))
}

func (d *Dispatcher) work(lane <-chan job) {
	defer d.wg.Done()
	for j := range lane {
		d.execute(j)
	}
}

func (d *Dispatcher) execute(j job) {
	deadline, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempt := 0
	var err error
	for {
		attempt++
		if err = j.run(); err == nil {
			break
		}
		wait, ok := d.retryDelay(err, attempt)
		if !ok {
			break
		}
		logger.Debug(j.ctx, "tg.sender", "send.retry",
			slog.String("op", j.action),
			slog.Int("attempts", attempt),
			slog.Duration("backoff", wait),
			slog.String("err_code", errorKind(err)),
		)
		if !sleep(deadline, wait) {
			break
		}
	}

	if err != nil {
		d.failed.Add(1)
		logger.Error(j.ctx, "tg.sender", "send.fail",
			slog.String("status", "fail"),
			slog.String("op", j.action),
			slog.Int("attempts", attempt),
			slog.Duration("duration", time.Since(start)),
			slog.String("err_code", errorKind(err)),
			slog.String("err", redact(err)),
		)
		return
	}
	logger.Debug(j.ctx, "tg.sender", "send.ok",
		slog.String("status", "ok"),
		slog.String("op", j.action),
		slog.Int("attempts", attempt),
		slog.Duration("duration", time.Since(start)),
	)
}

// retryDelay honours Telegram's retry_after on flood errors and backs off
// linearly on dial failures.
func (d *Dispatcher) retryDelay(err error, attempt int) (time.Duration, bool) {
	if attempt > d.opts.MaxRetries {
		return 0, false
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	if netutil.ShouldRetry(err, false) {
		return d.opts.RetryBackoff * time.Duration(attempt), true
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func errorKind(err error) string {
	var flood tele.FloodError
	var apiErr *tele.Error
	switch {
	case errors.As(err, &flood):
		return "flood"
	case errors.As(err, &apiErr) && apiErr.Code >= 500:
		return "api_5xx"
	case errors.As(err, &apiErr) && apiErr.Code >= 400:
		return "api_4xx"
	case netutil.IsDialError(err):
		return "dial"
	case netutil.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "unknown"
}

// redact keeps bot tokens embedded in request URLs out of the logs.
func redact(err error) string {
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
