package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// replyCounters is shared between the handler and the sender goroutines that
// complete its queued replies.
type replyCounters struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

// countingContext wraps tele.Context to count delivered responses and detect
// keyboard usage.
type countingContext struct {
	tele.Context
	counters *replyCounters
}

func (m countingContext) count(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	m.counters.messages.Add(1)
	if hasKeyboard(opts) {
		m.counters.keyboard.Store(true)
	}
	return nil
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating message counters.
func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Send(what, opts...), opts)
}

// Reply proxies tele.Context.Reply while updating message counters.
func (m countingContext) Reply(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Reply(what, opts...), opts)
}

// Edit proxies tele.Context.Edit. Edits count as responses.
func (m countingContext) Edit(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Edit(what, opts...), opts)
}

// EditOrSend proxies tele.Context.EditOrSend while updating message counters.
func (m countingContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.EditOrSend(what, opts...), opts)
}

// EditOrReply proxies tele.Context.EditOrReply while updating message counters.
func (m countingContext) EditOrReply(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware instruments the context so handler summaries can
// report how many responses an update produced.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters, ok := c.Get(countersKey).(*replyCounters)
		if !ok {
			counters = &replyCounters{}
			c.Set(countersKey, counters)
		}
		return next(countingContext{Context: c, counters: counters})
	}
}

// GetCounters reports responses delivered so far and whether any carried a
// keyboard. Replies still queued in the sender are not included.
func GetCounters(c tele.Context) (int, bool) {
	counters, ok := c.Get(countersKey).(*replyCounters)
	if !ok {
		return 0, false
	}
	return int(counters.messages.Load()), counters.keyboard.Load()
}
