package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// typingInterval is below Telegram's five second typing indicator lifetime.
const typingInterval = 4 * time.Second

// StartTyping shows the typing indicator in chatID until the returned stop
// function is called or ctx ends.
func StartTyping(ctx context.Context, sender Sender, chatID int64, log *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	send := func() {
		if _, err := sender.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil && ctx.Err() == nil {
			log.DebugContext(ctx, "Typing action failed", "chat_id", chatID, "error", err)
		}
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()

		send()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				send()
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
