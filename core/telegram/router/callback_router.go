package router

import (
	"log/slog"

	"github.com/m3rciful/afkbot/core/logger"
	tg "github.com/m3rciful/afkbot/core/telegram"
	"github.com/m3rciful/afkbot/core/telegram/callbacks"
	"github.com/m3rciful/afkbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns the tele.OnCallback route. Every query is answered
// before dispatch so the client stops its spinner even when the handler
// fails; unknown keys go to the registry fallback, then opts.NotFound.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(cb)
		_ = c.Respond()

		name := "callback." + normalizeHandlerName(key)
		cbKey := slog.String("cb_key", logger.SanitizeLimit(key, 64))
		if reg != nil {
			if h, ok := reg.GetCallback(key); ok && h != nil {
				return handled(c, name, h, cbKey)
			}
		}

		fallback := opts.NotFound
		if reg != nil && reg.CallbackNotFound() != nil {
			fallback = reg.CallbackNotFound()
		}
		return handled(c, name, fallback, cbKey, slog.String("reason", "not_found"))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
