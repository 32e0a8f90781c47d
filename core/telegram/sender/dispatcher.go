// Package sender runs outbound Telegram calls on a small worker pool so that
// update handlers never block on the Bot API.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/m3rciful/afkbot/core/logger"
	"github.com/m3rciful/afkbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
	// MaxFloodWait caps how long a job honours a 429 retry_after hint.
	// Longer hints fail the job immediately. Defaults to MaxDuration.
	MaxFloodWait time.Duration
	Clock        clockwork.Clock
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	if o.MaxFloodWait <= 0 {
		o.MaxFloodWait = o.MaxDuration
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts Options
	jobs chan job
	wg   sync.WaitGroup
	errs atomic.Uint64

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewDispatcher starts a dispatcher; zero options fall back to defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go d.worker()
	}
	return d
}

// Enqueue schedules run for asynchronous execution. It never blocks: a full
// queue yields ErrQueueFull and the caller decides whether to run inline.
// run must be safe to call more than once when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
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
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that failed after all attempts.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		if err := d.process(j); err != nil {
			d.errs.Add(1)
		}
	}
}

// process runs j until it succeeds, hits a permanent error, runs out of
// attempts or exceeds MaxDuration.
func (d *Dispatcher) process(j job) error {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := d.opts.Clock.Now()
	attempts := d.opts.MaxRetries + 1
	logger.Debug(j.ctx, component, "send.start", j.attrs()...)

	for attempt := 1; ; attempt++ {
		err := j.run()
		if err == nil {
			d.logSuccess(j, attempt, start)
			return nil
		}

		delay, retry := d.retryDelay(err, attempt)
		if !retry || attempt >= attempts {
			d.logFailure(j, err, attempt, start)
			return err
		}
		logger.Debug(j.ctx, component, "send.retry.backoff",
			append(j.attrs(),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error_kind", classifyError(err)),
			)...,
		)
		select {
		case <-ctx.Done():
			d.logFailure(j, ctx.Err(), attempt, start)
			return ctx.Err()
		case <-d.opts.Clock.After(delay):
		}
	}
}

// retryDelay reports how long to wait before retrying err. Flood errors wait
// for Telegram's retry_after hint; transport errors back off linearly.
func (d *Dispatcher) retryDelay(err error, attempt int) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		wait := time.Duration(flood.RetryAfter) * time.Second
		if wait <= 0 {
			wait = d.opts.RetryBackoff
		}
		return wait, wait <= d.opts.MaxFloodWait
	}
	if !netutil.ShouldRetry(err) {
		return 0, false
	}
	return d.opts.RetryBackoff * time.Duration(attempt), true
}

func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

func (d *Dispatcher) logSuccess(j job, attempt int, start time.Time) {
	attrs := append(j.attrs(), slog.Int("elapsed_ms", durationToMS(d.opts.Clock.Since(start))))
	if attempt == 1 {
		logger.Debug(j.ctx, component, "send.success", attrs...)
		return
	}
	logger.Info(j.ctx, component, "send.retry.success", append(attrs, slog.Int("attempt", attempt))...)
}

func (d *Dispatcher) logFailure(j job, err error, attempt int, start time.Time) {
	logger.Error(j.ctx, component, "send.fail",
		append(j.attrs(),
			slog.String("status", "fail"),
			slog.String("err", sanitizeErrorMessage(err)),
			slog.String("error_kind", classifyError(err)),
			slog.Int("attempts", attempt),
			slog.Int("elapsed_ms", durationToMS(d.opts.Clock.Since(start))),
		)...,
	)
}

func durationToMS(d time.Duration) int {
	return int(logger.RoundMS(d) / time.Millisecond)
}
