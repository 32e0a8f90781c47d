package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	coreconfig "github.com/m3rciful/afkbot/core/config"
	"github.com/m3rciful/afkbot/core/logger"
	tghelpers "github.com/m3rciful/afkbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Exempt lists user ids that are never limited, typically the owner.
	Exempt []int64
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// updateKind names the update the way rate_limit.exclude_updates does.
func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user. Entries older than the interval are
// pruned, so a flood of distinct senders does not grow the table unbounded.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var (
		mu        sync.Mutex
		lastSeen  = make(map[int64]time.Time)
		lastPrune time.Time
	)
	allow := func(userID int64) bool {
		now := clock.Now()
		mu.Lock()
		defer mu.Unlock()
		if now.Sub(lastPrune) >= opts.Interval {
			for id, ts := range lastSeen {
				if now.Sub(ts) >= opts.Interval {
					delete(lastSeen, id)
				}
			}
			lastPrune = now
		}
		if last, ok := lastSeen[userID]; ok && now.Sub(last) < opts.Interval {
			return false
		}
		lastSeen[userID] = now
		return true
	}

	exempt := make(map[int64]struct{}, len(opts.Exempt))
	for _, id := range opts.Exempt {
		exempt[id] = struct{}{}
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, ok := exempt[user.ID]; ok {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if allow(user.ID) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
