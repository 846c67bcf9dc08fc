package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/labsbot/internal/dispatch"
)

// NewHelpHandler returns a handler listing the available commands.
func NewHelpHandler(deps Deps) dispatch.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps Deps
}

func (h helpHandler) Handle(ctx context.Context, req *dispatch.Request) error {
	h.deps.Logger.InfoContext(ctx, "Handling help command", "user_id", req.UserID)
	return req.Replier.Reply(ctx, h.text())
}

func (h helpHandler) text() string {
	prefix := h.deps.prefix()
	products := h.deps.Store.PriorityProducts()

	productCmds := map[string]bool{}
	for _, p := range products {
		if cmd := productCommand(p); h.deps.Dispatcher.Has(cmd) {
			productCmds[cmd] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("🤖 Bot Commands\n\n📋 General Commands\n")
	fmt.Fprintf(&sb, "%s%s - Show this help\n", prefix, CommandHelp)
	fmt.Fprintf(&sb, "%s%s - System status\n", prefix, CommandStatus)
	for _, name := range h.deps.Dispatcher.Commands() {
		if builtins[name] || productCmds[name] || coveredByProduct(name, productCmds) {
			continue
		}
		fmt.Fprintf(&sb, "%s%s - %s information\n", prefix, name, name)
	}

	var listed []string
	for _, p := range products {
		if productCmds[productCommand(p)] {
			listed = append(listed, fmt.Sprintf("%s%s - %s information\n", prefix, productCommand(p), p))
		}
	}
	if len(listed) > 0 {
		sb.WriteString("\n🚀 Product Commands\n")
		for _, line := range listed {
			sb.WriteString(line)
		}
	}

	if footer := h.deps.Config.Messages.HelpFooter; footer != "" {
		sb.WriteString("\n" + footer)
	}
	return strings.TrimSpace(sb.String())
}

// coveredByProduct reports whether name is the short form of a registered
// product command, such as zenthink for zenthinkai.
func coveredByProduct(name string, productCmds map[string]bool) bool {
	for cmd := range productCmds {
		if strings.Contains(cmd, name) {
			return true
		}
	}
	return false
}
