package middleware

import (
	"log/slog"

	"github.com/m3rciful/afkbot/core/logger"
	tghelpers "github.com/m3rciful/afkbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// AdminID of zero disables the check.
	AdminID int64
	// OnReject handles updates from other users; nil drops them.
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware passes updates from the admin to next and everything
// else to opts.OnReject.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if opts.AdminID == 0 || (sender != nil && sender.ID == opts.AdminID) {
				return next(c)
			}
			logger.Debug(tghelpers.BuildContext(c), "tg", "tg.admin_reject",
				slog.String("status", "skip"),
				slog.Bool("has_fallback", opts.OnReject != nil),
			)
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
