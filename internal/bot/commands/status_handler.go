package commands

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/edgard/labsbot/internal/dispatch"
)

// NewStatusHandler returns a handler reporting bot health.
func NewStatusHandler(deps Deps) dispatch.HandlerFunc {
	return statusHandler{deps}.Handle
}

type statusHandler struct {
	deps Deps
}

func (h statusHandler) Handle(ctx context.Context, req *dispatch.Request) error {
	h.deps.Logger.InfoContext(ctx, "Handling status command", "user_id", req.UserID)
	return req.Replier.Reply(ctx, h.text())
}

func (h statusHandler) text() string {
	store := h.deps.Store

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var sb strings.Builder
	sb.WriteString("📊 System Status\n\n")
	sb.WriteString("🤖 Bot: ✅ Online and operational\n")
	if store.IsLoaded() {
		fmt.Fprintf(&sb, "📚 Knowledge base: ✅ Loaded (version %d, %d commands)\n", store.Version(), len(store.Commands()))
	} else {
		sb.WriteString("📚 Knowledge base: ❌ Not loaded\n")
	}
	fmt.Fprintf(&sb, "⏱️ Uptime: %s\n", formatUptime(h.deps.Clock.Since(h.deps.StartedAt)))
	fmt.Fprintf(&sb, "💾 Memory: Heap %d MB, Sys %d MB, Goroutines %d",
		mem.HeapAlloc/1024/1024, mem.Sys/1024/1024, runtime.NumGoroutine())
	return sb.String()
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
