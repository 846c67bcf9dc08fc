package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/labsbot/internal/telegram"
)

// RegisterAllHandlers returns the Telegram handlers for prefixed commands
// and /start. Free-form messages go to the mention handler, installed as the
// bot's default handler.
func RegisterAllHandlers(deps HandlerDeps) map[string]telegram.RegisteredHandler {
	handlers := make(map[string]telegram.RegisteredHandler)
	common := []tgbot.Middleware{IgnoreBots(deps)}

	handlers["command"] = telegram.RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     deps.Config.Telegram.CommandPrefix,
		Handler:     NewCommandHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
		Middleware:  common,
	}
	handlers["/start"] = telegram.RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  common,
	}

	return handlers
}
