package afkbot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/afkbot/core/logger"
	tg "github.com/m3rciful/afkbot/core/telegram"
	"github.com/m3rciful/afkbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/afkbot/core/telegram/helpers"
	"github.com/m3rciful/afkbot/core/telegram/keyboard"
	"github.com/m3rciful/afkbot/internal/away"
	"github.com/m3rciful/afkbot/internal/metrics"

	tele "gopkg.in/telebot.v4"
)

const (
	component = "afk"

	// CallbackBack is the unique key of the inline "I'm back" button.
	CallbackBack = "afk_back"
)

// Options configures a Bot.
type Options struct {
	// OwnerID is the account whose presence is tracked.
	OwnerID  int64
	Manager  *away.Manager
	Renderer Renderer
	Metrics  metrics.Recorder
}

// Bot handles owner commands and answers private messages while the owner is away.
type Bot struct {
	owner  int64
	mgr    *away.Manager
	render Renderer
	rec    metrics.Recorder
	reg    *tg.Registry
}

// New builds a Bot and registers its commands and callbacks.
func New(opts Options) *Bot {
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	b := &Bot{
		owner:  opts.OwnerID,
		mgr:    opts.Manager,
		render: opts.Renderer,
		rec:    rec,
		reg:    tg.NewRegistry(),
	}
	b.register()
	st := b.mgr.State()
	b.rec.SetAway(st.IsAway, len(st.NotifiedIDs))
	return b
}

// Registry exposes the command registry.
func (b *Bot) Registry() *tg.Registry {
	return b.reg
}

func (b *Bot) register() {
	b.reg.RegisterCommand("/away", commands.Command{
		Handler:     b.onCommand,
		Description: "Turn on away mode: /away [reason]",
		AdminOnly:   true,
		Aliases:     []string{"/afk", ".afk"},
	})
	b.reg.RegisterCommand("/back", commands.Command{
		Handler:     b.onCommand,
		Description: "Turn off away mode",
		AdminOnly:   true,
		Aliases:     []string{"/unafk", ".unafk"},
	})
	b.reg.RegisterCommand("/status", commands.Command{
		Handler:     b.onCommand,
		Description: "Show away status",
		AdminOnly:   true,
	})
	_ = b.reg.RegisterCallback(CallbackBack, b.onBackButton)
	// CallbackRoute has already answered the query.
	b.reg.SetCallbackNotFound(func(tele.Context) error { return nil })
	b.reg.SetTextFallback(b.onIncoming)
}

// Execute applies cmd to the session and returns the MarkdownV2 answer and an
// optional keyboard for the owner.
func (b *Bot) Execute(ctx context.Context, cmd Command) (string, *tele.ReplyMarkup) {
	switch cmd.Kind {
	case CommandActivate:
		restarted := b.mgr.IsAway()
		st, err := b.mgr.Activate(ctx, cmd.Reason)
		b.rec.IncActivated(restarted)
		b.afterCommit("activate", err)
		text := b.render.Activated(st, restarted) + b.savedSuffix(err)
		return text, keyboard.InlineButtons(keyboard.InlineBtn{Text: "I'm back", Unique: CallbackBack})
	case CommandDeactivate:
		d, err := b.mgr.Deactivate(ctx)
		if errors.Is(err, away.ErrNotAway) {
			return b.render.NotAway(), nil
		}
		b.rec.IncDeactivated()
		b.afterCommit("deactivate", err)
		return b.render.Deactivated(d) + b.savedSuffix(err), nil
	case CommandStatus:
		return b.render.Status(b.mgr.State(), b.mgr.Elapsed()), nil
	}
	return "", nil
}

func (b *Bot) afterCommit(op string, err error) {
	if errors.Is(err, away.ErrPersistence) {
		b.rec.IncPersistenceFailure(op)
	}
	st := b.mgr.State()
	b.rec.SetAway(st.IsAway, len(st.NotifiedIDs))
}

func (b *Bot) savedSuffix(err error) string {
	if err == nil {
		return ""
	}
	return b.render.NotSaved()
}

func (b *Bot) isOwner(u *tele.User) bool {
	return u != nil && u.ID == b.owner
}

func (b *Bot) onCommand(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "afk.command")
	if chat := c.Chat(); chat == nil || chat.Type != tele.ChatPrivate {
		return nil
	}
	cmd, ok := ParseCommand(c.Text())
	if !ok {
		return nil
	}
	logger.Debug(ctx, component, "afk.command",
		slog.String("command", cmd.Kind.String()),
	)
	text, markup := b.Execute(ctx, cmd)
	return tghelpers.SendMDV2(c, text, markup)
}

func (b *Bot) onBackButton(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "afk.back_button")
	if !b.isOwner(c.Sender()) {
		logger.Warn(ctx, component, "afk.back_button",
			slog.String("status", "skip"),
			slog.String("reason", "not_owner"),
		)
		return nil
	}
	text, _ := b.Execute(ctx, Command{Kind: CommandDeactivate})
	return tghelpers.EditOrSendMDV2(c, text)
}

// onIncoming answers a direct message once per away session. Group chats,
// bots and the owner are ignored. A sender is recorded only after the reply
// was accepted for delivery.
func (b *Bot) onIncoming(c tele.Context) error {
	sender, ok := tghelpers.DirectSender(c)
	if !ok || b.isOwner(sender) {
		return nil
	}
	if !b.mgr.IsAway() {
		return nil
	}

	ctx := tghelpers.WithHandler(c, "afk.auto_reply")
	if !b.mgr.ShouldNotify(sender.ID) {
		b.rec.IncAutoReply(metrics.ReplyDuplicate)
		logger.Debug(ctx, component, "afk.notify",
			slog.String("status", "skip"),
			slog.String("reason", "already_notified"),
			slog.Int64("sender_id", sender.ID),
		)
		return nil
	}

	if err := tghelpers.ReplyMDV2(c, b.render.Reply(b.mgr.Reply())); err != nil {
		b.rec.IncAutoReply(metrics.ReplyFailed)
		logger.Error(ctx, component, "afk.notify",
			slog.String("status", "fail"),
			slog.Int64("sender_id", sender.ID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return nil
	}
	b.rec.IncAutoReply(metrics.ReplySent)

	err := b.mgr.RecordNotified(ctx, sender.ID)
	b.afterCommit("record_notified", err)
	logger.Info(ctx, component, "afk.notify",
		slog.String("status", logger.Status(err)),
		slog.Int64("sender_id", sender.ID),
	)
	return nil
}
