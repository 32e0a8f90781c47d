package helpers

import (
	"context"

	"github.com/m3rciful/afkbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "helpers.log_ctx"

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context previously stored by middleware.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext derives a logging context from c carrying the request id and
// update, user and chat ids. The result is cached on c.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return logger.Background()
	}
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	upd := c.Update()
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}

	ctx := logger.WithRID(logger.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

// DirectSender returns the human author of a message sent in a private chat
// with the bot. Groups, channels, service updates and other bots yield false.
func DirectSender(c tele.Context) (*tele.User, bool) {
	if c == nil {
		return nil, false
	}
	chat, sender := c.Chat(), c.Sender()
	if chat == nil || chat.Type != tele.ChatPrivate || sender == nil || sender.IsBot {
		return nil, false
	}
	return sender, true
}
