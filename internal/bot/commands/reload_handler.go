package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/labsbot/internal/dispatch"
)

// NewReloadHandler returns a handler that refreshes the knowledge bundle.
// "reload force" re-reads the file even when its mtime is unchanged.
func NewReloadHandler(deps Deps) dispatch.HandlerFunc {
	return reloadHandler{deps}.Handle
}

type reloadHandler struct {
	deps Deps
}

func (h reloadHandler) Handle(ctx context.Context, req *dispatch.Request) error {
	log := h.deps.Logger.With("handler", "reload")
	store := h.deps.Store
	msgs := h.deps.Config.Messages

	force := len(req.Args) > 0 && strings.EqualFold(req.Args[0], "force")
	log.InfoContext(ctx, "Handling reload command", "user_id", req.UserID, "force", force)

	var (
		reloaded bool
		err      error
	)
	if force {
		_, err = store.Load(ctx)
		reloaded = err == nil
	} else {
		reloaded, err = store.Refresh(ctx)
	}
	if err != nil {
		return dispatch.NewUserError(msgs.GeneralError, fmt.Errorf("reload knowledge: %w", err))
	}

	msg := msgs.ReloadUnchanged
	if reloaded {
		msg = msgs.Reloaded
	}
	if strings.Contains(msg, "%d") {
		msg = fmt.Sprintf(msg, store.Version())
	}
	return req.Replier.Reply(ctx, msg)
}
