package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edgard/labsbot/internal/dispatch"
)

var errEmptyResponse = errors.New("no response available")

// NewKnowledgeHandler returns a handler that replies with the bundle text
// mapped to command.
func NewKnowledgeHandler(deps Deps, command string) dispatch.HandlerFunc {
	return knowledgeHandler{deps: deps, command: command}.Handle
}

type knowledgeHandler struct {
	deps    Deps
	command string
}

func (h knowledgeHandler) Handle(ctx context.Context, req *dispatch.Request) error {
	log := h.deps.Logger.With("handler", "knowledge", "command", h.command)

	response := h.deps.Store.CommandResponse(h.command)
	log.DebugContext(ctx, "Resolved knowledge command", "length", len(response))

	if response == "" {
		name := displayName(h.deps.Store.Bundle(), h.command)
		msg := h.deps.Config.Messages.NoInformation
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, name)
		}
		return dispatch.NewUserError(msg, fmt.Errorf("%s: %w", h.command, errEmptyResponse))
	}

	return req.Replier.Reply(ctx, response)
}
