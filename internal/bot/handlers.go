// Package bot maps Telegram commands, menu buttons and free text onto the
// contact dialogue and the directory queries.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/phonebook/core/logger"
	tg "github.com/m3rciful/phonebook/core/telegram"
	"github.com/m3rciful/phonebook/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/phonebook/core/telegram/helpers"
	"github.com/m3rciful/phonebook/internal/directory"
	"github.com/m3rciful/phonebook/internal/session"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.handler"

// Directory is the read side used by the search menus.
type Directory interface {
	Query(ctx context.Context, f directory.Filter) ([]directory.Contact, error)
	Recent(ctx context.Context) (directory.Listing, error)
	DistinctRegions(ctx context.Context) ([]string, error)
	DistinctProfessions(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (directory.Stats, error)
}

// Sessions drives the add-contact dialogue.
type Sessions interface {
	Start(ctx context.Context, userID int64) (session.Outcome, error)
	Input(ctx context.Context, userID int64, text string) (session.Outcome, error)
	Cancel(ctx context.Context, userID int64) (session.Outcome, error)
	InProgress(ctx context.Context, userID int64) bool
}

// Options configures Register.
type Options struct {
	// AdminID enables /stats for that user. Zero leaves /stats unregistered.
	AdminID int64
}

// Handler serves every update the bot understands.
type Handler struct {
	dir      Directory
	sessions Sessions
	reg      *tg.Registry
}

// New builds a Handler.
func New(dir Directory, sessions Sessions) *Handler {
	return &Handler{dir: dir, sessions: sessions}
}

// handlerError tags a failure with a stable code for handler summaries.
type handlerError struct {
	code string
	err  error
}

func (e *handlerError) Error() string { return e.code + ": " + e.err.Error() }
func (e *handlerError) Unwrap() error { return e.err }
func (e *handlerError) Code() string  { return e.code }

func codeFor(err error) string {
	switch {
	case errors.Is(err, directory.ErrStoreWrite):
		return "store_write"
	case errors.Is(err, directory.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}

// Register adds the bot's commands and callbacks to reg.
func (h *Handler) Register(reg *tg.Registry, opts Options) error {
	if reg == nil {
		return fmt.Errorf("bot: nil registry")
	}
	h.reg = reg

	type entry struct {
		name string
		cmd  tg.Command
	}
	cmds := []entry{
		{"/start", tg.Command{Handler: h.onStart, Description: "Open the main menu"}},
		{"/add", tg.Command{Handler: h.onAdd, Description: "Add a contact"}},
		{"/cancel", tg.Command{Handler: h.onCancel, Description: "Cancel the current action"}},
		{"/search", tg.Command{Handler: h.onSearchMenu, Description: "Search contacts", Aliases: []string{"find"}}},
		{"/regions", tg.Command{Handler: h.onRegionPicker, Description: "Browse contacts by region"}},
		{"/professions", tg.Command{Handler: h.onProfessionPicker, Description: "Browse contacts by profession"}},
		{"/help", tg.Command{Handler: h.onHelp, Description: "Show available commands"}},
	}
	if opts.AdminID != 0 {
		cmds = append(cmds, entry{"/stats", tg.Command{Handler: h.onStats, Description: "Directory statistics", AdminOnly: true}})
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	cbs := map[string]tele.HandlerFunc{
		cbMainMenu:           h.onMainMenu,
		cbAddContact:         h.onAdd,
		cbSearchContacts:     h.onSearchMenu,
		cbSearchByRegion:     h.onRegionPicker,
		cbSearchByProfession: h.onProfessionPicker,
		cbRegion:             h.onRegion,
		cbProfession:         h.onProfession,
		cbAllContacts:        h.onAllContacts,
		cbCancel:             h.onCancel,
	}
	for key, fn := range cbs {
		if err := reg.RegisterCallback(key, fn); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	return nil
}

// InProgress reports whether the user is inside the add-contact dialogue.
func (h *Handler) InProgress(ctx context.Context, userID int64) bool {
	return h.sessions.InProgress(ctx, userID)
}

// HandleText feeds a dialogue answer and replies with the next prompt.
func (h *Handler) HandleText(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	out, err := h.sessions.Input(ctx, u.ID, c.Text())
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		return nil
	case err != nil:
		notice := msgUnavailable
		if errors.Is(err, directory.ErrStoreWrite) {
			notice = msgCommitFailed
		}
		_ = tghelpers.SendPlain(c, notice, mainMenu())
		return &handlerError{code: codeFor(err), err: err}
	}

	switch out.Effect {
	case session.EffectPromptPhone:
		return tghelpers.SendPlain(c, msgPromptPhone, promptMarkup())
	case session.EffectPromptProfession:
		return tghelpers.SendPlain(c, msgPromptProfession, promptMarkup())
	case session.EffectPromptRegion:
		return tghelpers.SendPlain(c, msgPromptRegion, promptMarkup())
	case session.EffectCommit:
		return tghelpers.SendPlain(c, msgCommitted, mainMenu())
	}
	logger.Warn(ctx, component, "dialogue.unexpected",
		slog.String("effect", out.Effect.String()),
		slog.String("step", string(out.Step)),
	)
	return nil
}

// UnknownCallback answers presses of buttons that are no longer wired.
func (h *Handler) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		_ = c.Respond(&tele.CallbackResponse{Text: msgUnknownCallback})
		return nil
	}
}

// RateLimited tells the user their update was dropped.
func (h *Handler) RateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgRateLimited})
	}
	return tghelpers.SendPlain(c, msgRateLimited)
}

// AdminRejected answers non-admin callers of admin-only commands.
func (h *Handler) AdminRejected(c tele.Context) error {
	return tghelpers.SendPlain(c, msgAdminOnly)
}

func (h *Handler) onStart(c tele.Context) error {
	return tghelpers.SendPlain(c, greeting(c.Sender()), mainMenu())
}

func (h *Handler) onMainMenu(c tele.Context) error {
	return tghelpers.EditOrSendPlain(c, msgMainMenu, mainMenu())
}

func (h *Handler) onAdd(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := h.sessions.Start(ctx, u.ID); err != nil {
		return h.unavailable(c, err)
	}
	return tghelpers.EditOrSendPlain(c, msgPromptName, promptMarkup())
}

func (h *Handler) onCancel(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := h.sessions.Cancel(ctx, u.ID); err != nil {
		return h.unavailable(c, err)
	}
	return tghelpers.EditOrSendPlain(c, msgCancelled, mainMenu())
}

func (h *Handler) onSearchMenu(c tele.Context) error {
	return tghelpers.EditOrSendPlain(c, msgSearchMenu, searchMenu())
}

func (h *Handler) onRegionPicker(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	values, err := h.dir.DistinctRegions(ctx)
	if err != nil {
		return h.unavailable(c, err)
	}
	buttons := pickerButtons(ctx, cbRegion, values)
	if len(buttons) == 0 {
		return tghelpers.EditOrSendPlain(c, msgNoRegions, backToSearch())
	}
	return tghelpers.EditOrSendPlain(c, msgPickRegion, pickerMarkup(buttons))
}

func (h *Handler) onProfessionPicker(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	values, err := h.dir.DistinctProfessions(ctx)
	if err != nil {
		return h.unavailable(c, err)
	}
	buttons := pickerButtons(ctx, cbProfession, values)
	if len(buttons) == 0 {
		return tghelpers.EditOrSendPlain(c, msgNoProfessions, backToSearch())
	}
	return tghelpers.EditOrSendPlain(c, msgPickProfession, pickerMarkup(buttons))
}

func (h *Handler) onRegion(c tele.Context) error {
	region := callbacks.Payload(c)
	ctx := tghelpers.BuildContext(c)
	contacts, err := h.dir.Query(ctx, directory.ByRegion(region))
	if err != nil {
		return h.unavailable(c, err)
	}
	return tghelpers.EditOrSendPlain(c, renderRegion(region, contacts), backToSearch())
}

func (h *Handler) onProfession(c tele.Context) error {
	profession := callbacks.Payload(c)
	ctx := tghelpers.BuildContext(c)
	contacts, err := h.dir.Query(ctx, directory.ByProfession(profession))
	if err != nil {
		return h.unavailable(c, err)
	}
	return tghelpers.EditOrSendPlain(c, renderProfession(profession, contacts), backToSearch())
}

func (h *Handler) onAllContacts(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	listing, err := h.dir.Recent(ctx)
	if err != nil {
		return h.unavailable(c, err)
	}
	return tghelpers.EditOrSendPlain(c, renderRecent(listing), backToSearch())
}

func (h *Handler) onHelp(c tele.Context) error {
	var list []tele.Command
	if h.reg != nil {
		list = h.reg.Menu()
	}
	return tghelpers.SendPlain(c, renderHelp(list))
}

func (h *Handler) onStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := h.dir.Stats(ctx)
	if err != nil {
		return h.unavailable(c, err)
	}
	return tghelpers.SendPlain(c, renderStats(st))
}

func (h *Handler) unavailable(c tele.Context, err error) error {
	_ = tghelpers.EditOrSendPlain(c, msgUnavailable, mainMenu())
	return &handlerError{code: codeFor(err), err: err}
}
