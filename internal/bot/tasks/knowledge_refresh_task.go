package tasks

import (
	"context"
	"fmt"
)

// newKnowledgeRefreshTask reloads the knowledge bundle when the file on disk
// is newer than the loaded one. A broken file leaves the current bundle in
// place and is reported as a task failure.
func newKnowledgeRefreshTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", TaskKnowledgeRefresh)

	return func(ctx context.Context) error {
		reloaded, err := deps.Store.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("knowledge refresh: %w", err)
		}
		if reloaded {
			log.InfoContext(ctx, "Knowledge bundle refreshed", "version", deps.Store.Version())
		} else {
			log.DebugContext(ctx, "Knowledge bundle unchanged", "version", deps.Store.Version())
		}
		return nil
	}
}
