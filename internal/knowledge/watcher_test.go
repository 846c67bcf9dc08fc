package knowledge

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRefreshesOnWrite(t *testing.T) {
	s, path := openSample(t)

	w := NewWatcher(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`{"responses": {"a": "fresh"}, "commands_map": {"a": ["a"]}}`), 0o644))
	bumpMTime(t, path, time.Minute)

	require.Eventually(t, func() bool {
		return s.Version() == 2
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "fresh", s.CommandResponse("a"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
