package tasks

import (
	"context"
	"time"
)

// ScheduledTaskFunc is the body of a scheduled task. It should respect ctx
// cancellation and return an error to have the failure logged.
type ScheduledTaskFunc func(ctx context.Context) error

// ScheduledTask pairs a task body with its run interval.
type ScheduledTask struct {
	Interval time.Duration
	Run      ScheduledTaskFunc
}

// Task names.
const (
	TaskKnowledgeRefresh = "knowledge_refresh"
)

// RegisterAllTasks returns every task enabled by the configuration, keyed by
// name. A task with a non-positive interval is left out.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTask {
	tasks := make(map[string]ScheduledTask)

	if interval := deps.Config.Knowledge.RefreshInterval; interval > 0 && deps.Store != nil {
		tasks[TaskKnowledgeRefresh] = ScheduledTask{
			Interval: interval,
			Run:      newKnowledgeRefreshTask(deps),
		}
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
