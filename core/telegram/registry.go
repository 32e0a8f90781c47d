package telegram

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/afkbot/core/logger"
	"github.com/m3rciful/afkbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrInvalidRegistration reports a command or callback that cannot be routed.
	ErrInvalidRegistration = errors.New("telegram: invalid registration")
	// ErrDuplicateRegistration reports a name or key registered twice.
	ErrDuplicateRegistration = errors.New("telegram: duplicate registration")
)

// Registry holds bot commands, callbacks and the fallbacks for updates that
// match neither. It is filled during wiring and read by the routers.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]commands.Command
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry. Unknown callbacks are answered with
// a short notice until SetCallbackNotFound replaces it.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

func wireSkip(event string, err error, attrs ...slog.Attr) error {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event,
		append(attrs, slog.String("err", err.Error()))...)
	return err
}

// RegisterCommand adds cmd under name, which must start with "/". The
// command needs a handler and a description for the Telegram menu.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return wireSkip("register.command.skip", fmt.Errorf("%w: command %q needs a slash prefix", ErrInvalidRegistration, name), slog.String("name", name))
	case cmd.Handler == nil || cmd.Description == "":
		return wireSkip("register.command.skip", fmt.Errorf("%w: command %q needs a handler and description", ErrInvalidRegistration, name), slog.String("name", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return wireSkip("register.command.duplicate", fmt.Errorf("%w: command %s", ErrDuplicateRegistration, name), slog.String("name", name))
	}
	r.commands[name] = cmd
	return nil
}

func (r *Registry) menu(keep func(commands.Command) bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []tele.Command
	for name, cmd := range r.commands {
		if keep(cmd) {
			list = append(list, tele.Command{Text: name, Description: cmd.Description})
		}
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return cmp.Compare(a.Text, b.Text) })
	return list
}

// ListCommands returns the command menu sorted by name. With visibleOnly,
// hidden and owner-only commands are left out.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	return r.menu(func(cmd commands.Command) bool {
		return !visibleOnly || (!cmd.Hidden && !cmd.AdminOnly)
	})
}

// ListAdminCommands returns the visible owner-only commands.
func (r *Registry) ListAdminCommands() []tele.Command {
	return r.menu(func(cmd commands.Command) bool { return cmd.AdminOnly && !cmd.Hidden })
}

// LookupCommand resolves name, a canonical command or one of its aliases,
// to the canonical key. A bare "away" matches "/away"; aliases may carry
// any prefix, e.g. ".afk".
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", commands.Command{}, false
	}
	slashed := "/" + strings.TrimPrefix(name, "/")
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[slashed]; ok {
		return slashed, cmd, true
	}
	for key, cmd := range r.commands {
		if cmd.MatchesAlias(name) {
			return key, cmd, true
		}
	}
	return "", commands.Command{}, false
}

// Commands returns a copy of the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback maps an inline button key to its handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return wireSkip("register.callback.skip", fmt.Errorf("%w: callback %q", ErrInvalidRegistration, key), slog.String("key", key))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return wireSkip("register.callback.duplicate", fmt.Errorf("%w: callback %s", ErrDuplicateRegistration, key), slog.String("key", key))
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered callback keys, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetCallbackNotFound replaces the handler for unknown callback keys; nil
// is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the handler for unknown callback keys.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that matches no command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

// TextFallback returns the handler for text that matches no command.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// InitBotCommands publishes the command menu: public commands for everyone
// and, when adminID is set, public plus owner commands in the owner's chat.
func InitBotCommands(bot *tele.Bot, reg *Registry, adminID int64) {
	public := reg.ListCommands(true)
	setMenu(bot, "default", public)
	if adminID != 0 {
		owner := append(slices.Clip(public), reg.ListAdminCommands()...)
		setMenu(bot, "admin", owner, tele.CommandScope{Type: tele.CommandScopeChat, ChatID: adminID})
	}
}

func setMenu(bot *tele.Bot, name string, cmds []tele.Command, scopes ...tele.CommandScope) {
	args := []any{cmds}
	for _, scope := range scopes {
		args = append(args, scope)
	}
	if err := bot.SetCommands(args...); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("scope", name),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
