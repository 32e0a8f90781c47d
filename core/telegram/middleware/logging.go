package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/afkbot/core/logger"
	"github.com/m3rciful/afkbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/afkbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware sets the request id and logs one receipt line per update.
// It is safe to stack: an update that already carries a rid passes through.
//
// Message text from other users is never logged; only its length and, for
// commands, the command word.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if rid, _ := c.Get("rid").(string); rid != "" {
			return next(c)
		}

		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", updateKind(c.Update())),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs, slog.Bool("is_bot", user.IsBot))
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	if cb := c.Callback(); cb != nil {
		if key, _ := callbacks.ParseCallbackData(cb); key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 64)))
		}
		return attrs
	}
	text := c.Text()
	if text == "" {
		return attrs
	}
	attrs = append(attrs, slog.Int("text_len", len([]rune(text))))
	if word, _, _ := strings.Cut(strings.TrimSpace(text), " "); strings.HasPrefix(word, "/") || strings.HasPrefix(word, ".") {
		attrs = append(attrs, slog.String("command", logger.SanitizeLimit(word, 32)))
	}
	return attrs
}
