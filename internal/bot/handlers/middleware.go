// Package handlers turns Telegram updates into dispatcher commands and
// assistant questions.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// IgnoreBots drops messages sent by other bots before they reach a handler.
func IgnoreBots(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message != nil && update.Message.From != nil && update.Message.From.IsBot {
				deps.Logger.DebugContext(ctx, "Ignoring message from bot", "user_id", update.Message.From.ID)
				return
			}
			next(ctx, bot, update)
		}
	}
}
