package router

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/phonebook/core/logger"
	tg "github.com/m3rciful/phonebook/core/telegram"
	"github.com/m3rciful/phonebook/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures admin gating of commands.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// bind wraps cmd with the admin gate when needed and the handled summary.
func (o CommandRouteOptions) bind(key string, cmd tg.Command) tele.HandlerFunc {
	h := cmd.Handler
	if cmd.AdminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			AdminID:  o.AdminID,
			OnReject: o.OnAdminReject,
		})(h)
	}
	name := handlerName(key)
	return func(c tele.Context) error {
		return handled(c, name, func() error { return h(c) })
	}
}

// CommandRoutes binds every registered command and alias.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	keys := make([]string, 0, len(cmds))
	for k := range cmds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var routes []tg.Route
	for _, key := range keys {
		cmd := cmds[key]
		h := middleware.RecoverMiddleware(middleware.LoggerMiddleware(opts.bind(key, cmd)))
		routes = append(routes, tg.Route{Endpoint: key, Handler: h})
		for _, alias := range cmd.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + strings.TrimPrefix(alias, "/"), Handler: h})
		}
	}

	logger.Info(logger.Background(), "tg.wire", "routes.commands",
		slog.String("status", "ok"),
		slog.Int("count", len(routes)),
	)
	return routes
}
