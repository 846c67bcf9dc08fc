package handlers

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/labsbot/internal/assistant"
	"github.com/edgard/labsbot/internal/dispatch"
	"github.com/edgard/labsbot/internal/logger"
	"github.com/edgard/labsbot/internal/telegram"
)

// NewMentionHandler returns the default handler: messages that mention the
// bot, reply to it or contain a trigger keyword are answered by the assistant.
func NewMentionHandler(deps HandlerDeps) bot.HandlerFunc {
	return mentionHandler{deps}.Handle
}

type mentionHandler struct {
	deps HandlerDeps
}

func (h mentionHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h mentionHandler) handle(ctx context.Context, sender telegram.Sender, update *models.Update) (dispatch.Result, bool) {
	log := h.deps.Logger.With("handler", "mention", "request_id", logger.RequestID(ctx))

	msg := update.Message
	if msg == nil || msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		log.DebugContext(ctx, "Ignoring update with nil message, empty text, or nil sender", "update_id", update.ID)
		return dispatch.Result{}, false
	}

	in := assistant.Message{
		Text:      msg.Text,
		FromBot:   msg.From.IsBot,
		Private:   msg.Chat.Type == models.ChatTypePrivate,
		Mentioned: h.mentioned(msg),
	}
	if !h.deps.Responder.ShouldRespond(in) {
		log.DebugContext(ctx, "Message not addressed to the bot", "chat_id", msg.Chat.ID)
		return dispatch.Result{}, false
	}

	log.InfoContext(ctx, "Handling mention", "chat_id", msg.Chat.ID, "message_id", msg.ID, "user_id", msg.From.ID)

	stopTyping := telegram.StartTyping(ctx, sender, msg.Chat.ID, log)
	res := h.deps.Responder.Respond(ctx, assistant.Request{
		UserID:  msg.From.ID,
		Text:    msg.Text,
		Private: in.Private,
		Replier: telegram.NewReplier(sender, msg, h.deps.Config.Telegram.MaxMessageLength),
	})
	stopTyping()

	if !res.Success {
		log.InfoContext(ctx, "Mention not answered", "reason", res.Reason)
	}
	return res, true
}

// mentioned reports whether msg @-mentions the bot or replies to one of its
// messages.
func (h mentionHandler) mentioned(msg *models.Message) bool {
	info := h.deps.Config.Telegram.BotInfo
	if info == nil || info.Username == "" {
		return false
	}
	username := strings.ToLower(info.Username)
	mention := "@" + username

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == info.ID {
		return true
	}

	// Entity offsets count UTF-16 code units.
	units := utf16.Encode([]rune(msg.Text))
	for _, e := range msg.Entities {
		if e.Type != models.MessageEntityTypeMention || e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > len(units) {
			continue
		}
		if strings.ToLower(string(utf16.Decode(units[e.Offset:e.Offset+e.Length]))) == mention {
			return true
		}
	}

	for _, w := range strings.Fields(strings.ToLower(msg.Text)) {
		if strings.TrimFunc(w, isMentionPunct) == mention {
			return true
		}
	}
	return false
}

// isMentionPunct reports punctuation around a word, keeping the @ of a
// mention.
func isMentionPunct(r rune) bool {
	return r != '@' && unicode.IsPunct(r)
}
