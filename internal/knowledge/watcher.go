package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

const (
	defaultDebounce = 500 * time.Millisecond
	pollInterval    = 100 * time.Millisecond
)

// Watcher triggers Store.Refresh when the bundle file changes on disk. The
// parent directory is watched so editors that replace the file on save are
// still seen.
type Watcher struct {
	store    *Store
	logger   *slog.Logger
	clock    clockwork.Clock
	debounce time.Duration
}

// NewWatcher creates a watcher for the store's bundle file.
func NewWatcher(store *Store, logger *slog.Logger) *Watcher {
	return &Watcher{
		store:    store,
		logger:   logger.With("component", "knowledge_watcher"),
		clock:    store.clock,
		debounce: defaultDebounce,
	}
}

// Run watches until ctx is cancelled. Bursts of events are collapsed into a
// single refresh once the file has been quiet for the debounce period.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			w.logger.Error("Error closing file watcher", "error", err)
		}
	}()

	target := filepath.Clean(w.store.Path())
	dir := filepath.Dir(target)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.InfoContext(ctx, "Watching knowledge bundle", "path", target)

	ticker := w.clock.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastEvent time.Time
	pending := false

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Knowledge watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.DebugContext(ctx, "Knowledge bundle event", "op", event.Op.String())
			lastEvent = w.clock.Now()
			pending = true

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.ErrorContext(ctx, "Knowledge watcher error", "error", err)

		case <-ticker.Chan():
			if !pending || w.clock.Since(lastEvent) < w.debounce {
				continue
			}
			pending = false
			if _, err := w.store.Refresh(ctx); err != nil {
				w.logger.WarnContext(ctx, "Knowledge refresh after file change failed", "error", err)
			}
		}
	}
}
