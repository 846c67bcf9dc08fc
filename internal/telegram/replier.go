package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/labsbot/internal/text"
)

// Sender is the part of *bot.Bot used to talk back to a chat.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// Replier delivers text to one chat, splitting it at sentence boundaries so
// no message exceeds MaxLength.
type Replier struct {
	sender    Sender
	chatID    int64
	threadID  int
	replyTo   int
	maxLength int
}

// NewReplier returns a Replier answering msg.
func NewReplier(sender Sender, msg *models.Message, maxLength int) *Replier {
	return &Replier{
		sender:    sender,
		chatID:    msg.Chat.ID,
		threadID:  msg.MessageThreadID,
		replyTo:   msg.ID,
		maxLength: maxLength,
	}
}

// Reply answers the original message. Only the first chunk is threaded as a
// reply; the rest follow as plain messages.
func (r *Replier) Reply(ctx context.Context, s string) error {
	return r.deliver(ctx, s, true)
}

// Send posts s to the chat without reply threading.
func (r *Replier) Send(ctx context.Context, s string) error {
	return r.deliver(ctx, s, false)
}

func (r *Replier) deliver(ctx context.Context, s string, reply bool) error {
	for i, chunk := range text.Split(s, r.maxLength) {
		params := &bot.SendMessageParams{
			ChatID:          r.chatID,
			MessageThreadID: r.threadID,
			Text:            chunk,
		}
		if reply && i == 0 && r.replyTo > 0 {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID:                r.replyTo,
				AllowSendingWithoutReply: true,
			}
		}
		if _, err := r.sender.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("send message to chat %d: %w", r.chatID, err)
		}
	}
	return nil
}
