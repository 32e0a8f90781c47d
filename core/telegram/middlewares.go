package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/afkbot/core/config"
	"github.com/m3rciful/afkbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain: panic recovery, per-user rate
// limiting when rate_limit.interval_ms is set, update logging and reply
// counters. The bot owner is never rate limited.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if limit, ok := rateLimitOptions(cfg, onLimited); ok {
		mws = append(mws, Middleware{Name: "rate_limit", Use: middleware.RateLimitMiddleware(limit)})
	}
	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}

func rateLimitOptions(cfg *coreconfig.Config, onLimited tele.HandlerFunc) (middleware.RateLimitOptions, bool) {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return middleware.RateLimitOptions{}, false
	}
	opts := middleware.RateLimitOptions{
		Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:   make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates)),
		OnLimited: onLimited,
	}
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		opts.Exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}
	if cfg.Telegram.AdminID != 0 {
		opts.Exempt = []int64{cfg.Telegram.AdminID}
	}
	return opts, true
}
