package router

import (
	"strings"

	tg "github.com/m3rciful/afkbot/core/telegram"
	"github.com/m3rciful/afkbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text and non-text messages.
type TextOptions struct {
	// AdminID restricts admin-only commands reached through text lookup.
	AdminID     int64
	UnknownText tele.HandlerFunc
	// Other handles media, contacts and locations; nil skips them.
	Other tele.HandlerFunc
}

// TextRoutes builds handlers for plain messages. Text is first matched
// against registered commands and aliases (e.g. ".afk"), then handed to the
// registry text fallback, then to opts.UnknownText.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(commandWord(c.Text())); ok && cmd.Handler != nil && allowed(c, cmd.AdminOnly, opts.AdminID) {
				return handled(c, normalizeHandlerName(key), cmd.Handler)
			}
			if fb := reg.TextFallback(); fb != nil {
				return handled(c, "fallback", fb)
			}
		}
		return handled(c, "unknown_text", opts.UnknownText)
	}
	otherHandler := func(c tele.Context) error {
		return handled(c, "other_message", opts.Other)
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(handler)},
		{Endpoint: tele.OnMedia, Handler: wrap(otherHandler)},
		{Endpoint: tele.OnContact, Handler: wrap(otherHandler)},
		{Endpoint: tele.OnLocation, Handler: wrap(otherHandler)},
	}
}

// commandWord returns the first word of text without a "@botname" suffix.
func commandWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	word := fields[0]
	if i := strings.Index(word, "@"); i > 0 {
		word = word[:i]
	}
	return word
}

func allowed(c tele.Context, adminOnly bool, adminID int64) bool {
	if !adminOnly || adminID == 0 {
		return true
	}
	sender := c.Sender()
	return sender != nil && sender.ID == adminID
}
