package router

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/m3rciful/afkbot/core/logger"
	tg "github.com/m3rciful/afkbot/core/telegram"
	"github.com/m3rciful/afkbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per command and per "/" alias, sorted by
// command name. Owner-only commands from anyone else go to OnAdminReject.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	guard := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	var routes []tg.Route
	for _, name := range slices.Sorted(maps.Keys(cmds)) {
		def := cmds[name]
		label, run := normalizeHandlerName(name), def.Handler
		h := middleware.RecoverMiddleware(middleware.LoggerMiddleware(func(c tele.Context) error {
			return handled(c, label, run)
		}))
		if def.AdminOnly {
			h = guard(h)
		}
		for _, endpoint := range append([]string{name}, def.SlashAliases()...) {
			routes = append(routes, tg.Route{Endpoint: endpoint, Handler: h})
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(cmds)),
		slog.Int("routes", len(routes)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
