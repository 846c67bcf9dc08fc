// Package commands implements the prefixed chat commands: knowledge lookups
// driven by the bundle plus the built-in help, status and reload.
package commands

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/labsbot/internal/config"
	"github.com/edgard/labsbot/internal/dispatch"
	"github.com/edgard/labsbot/internal/knowledge"
)

// Deps provides dependencies for command handlers.
type Deps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      *knowledge.Store
	Dispatcher *dispatch.Dispatcher
	Clock      clockwork.Clock
	StartedAt  time.Time
}

func (d Deps) prefix() string {
	if d.Config.Telegram.CommandPrefix == "" {
		return config.DefaultCommandPrefix
	}
	return d.Config.Telegram.CommandPrefix
}
