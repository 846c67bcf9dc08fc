package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/labsbot/internal/bot/tasks"
)

type blockingListener struct{ started atomic.Bool }

func (l *blockingListener) Start(ctx context.Context) {
	l.started.Store(true)
	<-ctx.Done()
}

type returningListener struct{}

func (returningListener) Start(context.Context) {}

type fakeWatcher struct{ err error }

func (w fakeWatcher) Run(ctx context.Context) error {
	if w.err != nil {
		return w.err
	}
	<-ctx.Done()
	return nil
}

func TestBotRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	sched, err := NewScheduler(discardLogger(), map[string]tasks.ScheduledTask{
		"tick": {Interval: 10 * time.Millisecond, Run: func(context.Context) error {
			runs.Add(1)
			return nil
		}},
	})
	require.NoError(t, err)

	listener := &blockingListener{}
	b := NewBot(discardLogger(), listener, sched, fakeWatcher{err: errors.New("no inotify")})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool {
		return listener.started.Load() && runs.Load() > 0
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("bot did not stop")
	}
}

func TestBotRunListenerExit(t *testing.T) {
	t.Parallel()

	b := NewBot(discardLogger(), returningListener{}, nil, nil)
	err := b.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped unexpectedly")
}
