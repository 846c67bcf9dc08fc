package handlers

import (
	"log/slog"

	"github.com/edgard/labsbot/internal/assistant"
	"github.com/edgard/labsbot/internal/config"
	"github.com/edgard/labsbot/internal/dispatch"
)

// HandlerDeps provides dependencies for Telegram update handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Dispatcher *dispatch.Dispatcher
	Responder  *assistant.Responder
}
