package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/phonebook/core/logger"

	tele "gopkg.in/telebot.v4"
)

// ErrInvalidRegistration reports a command or callback without a name or handler.
var ErrInvalidRegistration = errors.New("telegram: invalid registration")

// Command is a slash command served by the bot.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are gated by the admin middleware and left out of the menu.
	AdminOnly bool
	Aliases   []string
}

// Registry maps slash commands and callback keys to handlers.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]Command
	aliases   map[string]string
	callbacks map[string]tele.HandlerFunc
	notFound  tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown-callback handler
// answers with a short notice.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		notFound: func(c tele.Context) error {
			_ = c.Respond(&tele.CallbackResponse{Text: "This button is no longer supported"})
			return nil
		},
	}
}

func commandName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	return "/" + strings.TrimPrefix(name, "/")
}

// RegisterCommand adds cmd under name and its aliases. The leading slash is optional.
func (r *Registry) RegisterCommand(name string, cmd Command) error {
	key := commandName(name)
	if key == "" || cmd.Handler == nil || cmd.Description == "" {
		return fmt.Errorf("%w: command %q", ErrInvalidRegistration, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	names := []string{key}
	for _, a := range cmd.Aliases {
		names = append(names, commandName(a))
	}
	for _, n := range names {
		_, taken := r.commands[n]
		if _, alias := r.aliases[n]; taken || alias {
			return fmt.Errorf("telegram: command %s already registered", n)
		}
	}
	r.commands[key] = cmd
	for _, n := range names[1:] {
		r.aliases[n] = key
	}
	logger.Debug(logger.Background(), "tg.wire", "register.command",
		slog.String("op", key),
		slog.Int("count", len(names)-1),
	)
	return nil
}

// LookupCommand resolves a command or alias, with or without the slash or a
// @botname suffix, to its canonical name.
func (r *Registry) LookupCommand(name string) (string, Command, bool) {
	key := commandName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	cmd, ok := r.commands[key]
	if !ok {
		return "", Command{}, false
	}
	return key, cmd, true
}

// Commands returns a copy of the canonical commands keyed by name.
func (r *Registry) Commands() map[string]Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// Menu lists the commands shown to every user, sorted by name.
func (r *Registry) Menu() []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []tele.Command
	for name, cmd := range r.commands {
		if !cmd.AdminOnly {
			list = append(list, tele.Command{Text: name, Description: cmd.Description})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// RegisterCallback binds handler to a callback key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return fmt.Errorf("%w: callback %q", ErrInvalidRegistration, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return fmt.Errorf("telegram: callback %s already registered", key)
	}
	r.callbacks[key] = handler
	return nil
}

// Callback returns the handler bound to key.
func (r *Registry) Callback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// CallbackKeys returns the registered callback keys, sorted.
func (r *Registry) CallbackKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCallbackNotFound replaces the handler for unknown callback keys. Nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.notFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the handler for unknown callback keys.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notFound
}

// PublishMenu uploads Menu as the bot's command list.
func (r *Registry) PublishMenu(bot *tele.Bot) error {
	menu := r.Menu()
	if err := bot.SetCommands(menu); err != nil {
		return fmt.Errorf("telegram: set commands: %w", err)
	}
	logger.Info(logger.Background(), "tg.wire", "commands.published",
		slog.String("status", "ok"),
		slog.Int("count", len(menu)),
	)
	return nil
}
