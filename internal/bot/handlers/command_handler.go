package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/labsbot/internal/bot/commands"
	"github.com/edgard/labsbot/internal/dispatch"
	"github.com/edgard/labsbot/internal/logger"
	"github.com/edgard/labsbot/internal/telegram"
)

// NewCommandHandler returns a handler for prefixed text commands.
func NewCommandHandler(deps HandlerDeps) bot.HandlerFunc {
	return commandHandler{deps}.Handle
}

type commandHandler struct {
	deps HandlerDeps
}

func (h commandHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h commandHandler) handle(ctx context.Context, sender telegram.Sender, update *models.Update) (dispatch.Result, bool) {
	log := h.deps.Logger.With("handler", "command", "request_id", logger.RequestID(ctx))

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update without message or sender", "update_id", update.ID)
		return dispatch.Result{}, false
	}

	name, args, ok := dispatch.Parse(h.deps.Config.Telegram.CommandPrefix, msg.Text)
	if !ok {
		return dispatch.Result{}, false
	}

	req := requestFor(h.deps, sender, msg)
	req.Args = args
	res := h.deps.Dispatcher.Dispatch(ctx, name, req)
	if !res.Success {
		log.InfoContext(ctx, "Command not completed", "command", name, "reason", res.Reason)
	}
	return res, true
}

// NewStartHandler returns a handler for Telegram's /start, answered with help.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h startHandler) handle(ctx context.Context, sender telegram.Sender, update *models.Update) dispatch.Result {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return dispatch.Result{}
	}
	h.deps.Logger.InfoContext(ctx, "Handling /start command", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)
	return h.deps.Dispatcher.Dispatch(ctx, commands.CommandHelp, requestFor(h.deps, sender, msg))
}

func requestFor(deps HandlerDeps, sender telegram.Sender, msg *models.Message) *dispatch.Request {
	return &dispatch.Request{
		Text:     msg.Text,
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.Username,
		Replier:  telegram.NewReplier(sender, msg, deps.Config.Telegram.MaxMessageLength),
	}
}
