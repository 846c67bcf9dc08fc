// Package tasks implements the periodic jobs run by the bot scheduler.
package tasks

import (
	"log/slog"

	"github.com/edgard/labsbot/internal/config"
	"github.com/edgard/labsbot/internal/knowledge"
)

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  *knowledge.Store
}
