package telegram

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/m3rciful/afkbot/core/logger"
	"github.com/m3rciful/afkbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// Transport-level failures (dial errors, timeouts) are retried with a linear
// backoff; HTTP status codes are left to telebot, which maps 429 to FloodError.
func BuildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: defaultResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Timeout:   defaultClientTimeout,
		Transport: transport,
	}
	rc.RetryMax = defaultRetryAttempts
	rc.RetryWaitMin = defaultRetryBackoff
	rc.RetryWaitMax = defaultRetryBackoff * defaultRetryAttempts
	rc.Backoff = linearBackoff
	rc.CheckRetry = checkRetry
	rc.Logger = retryLogger{}

	return rc.StandardClient()
}

func checkRetry(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return netutil.ShouldRetry(err), nil
	}
	return false, nil
}

// linearBackoff waits min*(attempt+1), capped at max.
func linearBackoff(minWait, maxWait time.Duration, attempt int, _ *http.Response) time.Duration {
	d := minWait * time.Duration(attempt+1)
	if d > maxWait {
		return maxWait
	}
	return d
}

// retryLogger adapts retryablehttp logging to the structured logger. The
// request URL embeds the bot token, so "url" pairs are dropped.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { logRetry(slog.LevelWarn, msg, kv) }
func (retryLogger) Warn(msg string, kv ...interface{})  { logRetry(slog.LevelWarn, msg, kv) }
func (retryLogger) Info(msg string, kv ...interface{})  { logRetry(slog.LevelDebug, msg, kv) }
func (retryLogger) Debug(msg string, kv ...interface{}) { logRetry(slog.LevelDebug, msg, kv) }

func logRetry(level slog.Level, msg string, kv []interface{}) {
	l := logger.Component("tg.http")
	if l == nil {
		return
	}
	attrs := make([]any, 0, len(kv)+2)
	attrs = append(attrs, slog.String("event", "http.retry"))
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok && key == "url" {
			continue
		}
		attrs = append(attrs, kv[i], kv[i+1])
	}
	l.Log(context.Background(), level, msg, attrs...)
}
