package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/labsbot/internal/bot/tasks"
	"github.com/edgard/labsbot/internal/config"
	"github.com/edgard/labsbot/internal/knowledge"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsTasks(t *testing.T) {
	t.Parallel()

	var ok, failing atomic.Int32
	s, err := NewScheduler(discardLogger(), map[string]tasks.ScheduledTask{
		"ok": {Interval: 20 * time.Millisecond, Run: func(context.Context) error {
			ok.Add(1)
			return nil
		}},
		"failing": {Interval: 20 * time.Millisecond, Run: func(context.Context) error {
			failing.Add(1)
			return errors.New("boom")
		}},
		"no_interval": {Run: func(context.Context) error { return nil }},
	})
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.ElementsMatch(t, []string{"ok", "failing"}, s.Jobs())

	require.Eventually(t, func() bool {
		return ok.Load() >= 2 && failing.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
}

func TestSchedulerLifecycle(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(discardLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, s.Stop(), "stopping an idle scheduler is a no-op")
	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}

func TestSchedulerRefreshesKnowledgeOnInterval(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	logger := discardLogger()

	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"responses": {"a": "old"}, "commands_map": {"cmd": ["a"]}}`), 0o644))
	store, err := knowledge.Open(ctx, path, logger)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"responses": {"a": "new"}, "commands_map": {"cmd": ["a"]}}`), 0o644))
	mt := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, mt, mt))

	cfg := config.Defaults()
	require.Equal(t, 15*time.Minute, cfg.Knowledge.RefreshInterval)

	clock := clockwork.NewFakeClock()
	s, err := NewScheduler(logger,
		tasks.RegisterAllTasks(tasks.TaskDeps{Logger: logger, Config: cfg, Store: store}),
		gocron.WithClock(clock),
	)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	defer func() { require.NoError(t, s.Stop()) }()
	assert.Equal(t, []string{tasks.TaskKnowledgeRefresh}, s.Jobs())

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(14 * time.Minute)
	assert.Equal(t, "old", store.CommandResponse("cmd"), "not due yet")

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		return store.Version() == 2
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "new", store.CommandResponse("cmd"))
}
