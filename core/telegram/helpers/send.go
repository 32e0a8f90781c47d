package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/afkbot/core/logger"
	"github.com/m3rciful/afkbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes the send helpers through d. With nil they call the
// Bot API inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// deliver hands run to the dispatcher. A full or closed queue runs it
// inline instead, so nil means the message was accepted either way.
func deliver(c tele.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

func markdownV2(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdownV2}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendMDV2 sends a MarkdownV2 message to the current chat.
func SendMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := markdownV2(markup)
	return deliver(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// ReplyMDV2 sends a MarkdownV2 message quoting the incoming one.
func ReplyMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := markdownV2(markup)
	opts.ReplyTo = c.Message()
	return deliver(c, "reply.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditOrSendMDV2 replaces the text of the callback's message, or sends a new
// message when the update carries none.
func EditOrSendMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := markdownV2(markup)
	return deliver(c, "edit.text", "editMessageText", func() error {
		return c.EditOrSend(text, opts)
	})
}
