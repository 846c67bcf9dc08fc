package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/labsbot/internal/bot/tasks"
)

// Scheduler runs the registered tasks at fixed intervals using gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	taskMap   map[string]tasks.ScheduledTask
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler for taskMap. Options are passed through to
// gocron.
func NewScheduler(logger *slog.Logger, taskMap map[string]tasks.ScheduledTask, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		taskMap:   taskMap,
	}, nil
}

// Start registers every task as a duration job and starts the scheduler.
// Task runs receive ctx. Tasks that cannot be scheduled are logged and
// skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	for name, task := range s.taskMap {
		if task.Run == nil || task.Interval <= 0 {
			s.logger.Warn("Skipping task without body or interval", "task_name", name)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.DurationJob(task.Interval),
			gocron.NewTask(s.wrap(task.Run), ctx, name),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.logger.Error("Failed to schedule task", "task_name", name, "interval", task.Interval, "error", err)
			continue
		}

		s.logger.Info("Scheduled task", "task_name", name, "interval", task.Interval)
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)
	return nil
}

func (s *Scheduler) wrap(run tasks.ScheduledTaskFunc) func(ctx context.Context, name string) {
	return func(ctx context.Context, name string) {
		s.logger.Debug("Running scheduled task", "task_name", name)
		start := time.Now()
		if err := run(ctx); err != nil {
			s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
		}
		s.logger.Debug("Finished scheduled task", "task_name", name, "duration", time.Since(start))
	}
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped")
	}
	s.running = false
	return err
}

// Jobs returns the names of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}
