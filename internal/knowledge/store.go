package knowledge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// snapshot is swapped atomically so readers never see a bundle paired with
// another load's metadata.
type snapshot struct {
	bundle   *Bundle
	modTime  time.Time
	version  uint64
	loadedAt time.Time
}

// Store serves the active knowledge bundle and reloads it when the backing
// file changes. It is safe for concurrent use.
type Store struct {
	path   string
	logger *slog.Logger
	clock  clockwork.Clock

	current atomic.Pointer[snapshot]
	loadMu  sync.Mutex
	group   singleflight.Group

	subMu       sync.Mutex
	subscribers []func(*Bundle)
}

// Option customises a Store.
type Option func(*Store)

// WithClock sets the clock used for load timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// Open creates a Store and performs the initial load. A failed load is
// returned to the caller and no Store is handed out.
func Open(ctx context.Context, path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		path:   path,
		logger: logger.With("component", "knowledge_store"),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load unconditionally reads, validates and interpolates the bundle file and
// makes it the active bundle. On failure the previous bundle stays active.
// It returns the version of the newly active bundle.
func (s *Store) Load(ctx context.Context) (uint64, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &LoadError{Path: s.path, Err: err}
	}

	startTime := s.clock.Now()

	info, err := os.Stat(s.path)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to stat knowledge bundle", "path", s.path, "error", err)
		return 0, &LoadError{Path: s.path, Err: err}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read knowledge bundle", "path", s.path, "error", err)
		return 0, &LoadError{Path: s.path, Err: err}
	}

	bundle, err := decodeBundle(s.path, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to parse knowledge bundle", "path", s.path, "error", err)
		return 0, &LoadError{Path: s.path, Err: err}
	}
	bundle.interpolateLinks()

	if dangling := bundle.DanglingKeys(); len(dangling) > 0 {
		s.logger.WarnContext(ctx, "Knowledge bundle references missing responses", "dangling", dangling)
	}
	if unresolved := bundle.UnresolvedPlaceholders(); len(unresolved) > 0 {
		s.logger.WarnContext(ctx, "Knowledge bundle has unresolved link placeholders", "placeholders", unresolved)
	}

	var version uint64 = 1
	if prev := s.current.Load(); prev != nil {
		version = prev.version + 1
	}
	s.current.Store(&snapshot{
		bundle:   bundle,
		modTime:  info.ModTime(),
		version:  version,
		loadedAt: s.clock.Now(),
	})

	s.logger.InfoContext(ctx, "Knowledge bundle loaded",
		"path", s.path,
		"version", version,
		"responses", len(bundle.Responses),
		"commands", len(bundle.CommandsMap),
		"duration", s.clock.Since(startTime))

	s.notify(bundle)
	return version, nil
}

// Refresh reloads the bundle only when the file's modification time is newer
// than the one recorded at the last successful load. Concurrent callers share
// a single check. A failed reload keeps the previous bundle and is returned
// for logging; it is never fatal.
func (s *Store) Refresh(ctx context.Context) (bool, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		s.loadMu.Lock()
		defer s.loadMu.Unlock()

		info, err := os.Stat(s.path)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error during knowledge refresh check", "path", s.path, "error", err)
			return false, &LoadError{Path: s.path, Err: err}
		}

		cur := s.current.Load()
		if cur != nil && !info.ModTime().After(cur.modTime) {
			s.logger.DebugContext(ctx, "Knowledge bundle unchanged, skipping reload", "path", s.path)
			return false, nil
		}

		s.logger.InfoContext(ctx, "Knowledge bundle changed, reloading", "path", s.path)
		if _, err := s.loadLocked(ctx); err != nil {
			s.logger.WarnContext(ctx, "Knowledge refresh failed, keeping previous bundle", "error", err)
			return false, err
		}
		return true, nil
	})
	reloaded, _ := v.(bool)
	return reloaded, err
}

// OnReload registers fn to run after every successful load.
func (s *Store) OnReload(fn func(*Bundle)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(b *Bundle) {
	s.subMu.Lock()
	subs := make([]func(*Bundle), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(b)
	}
}

// Bundle returns the active bundle. Callers must treat it as read-only.
func (s *Store) Bundle() *Bundle {
	if cur := s.current.Load(); cur != nil {
		return cur.bundle
	}
	return nil
}

// IsLoaded reports whether a bundle has been loaded successfully.
func (s *Store) IsLoaded() bool {
	return s.current.Load() != nil
}

// Version is incremented on every successful load, starting at 1.
func (s *Store) Version() uint64 {
	if cur := s.current.Load(); cur != nil {
		return cur.version
	}
	return 0
}

// LoadedAt returns when the active bundle was loaded.
func (s *Store) LoadedAt() time.Time {
	if cur := s.current.Load(); cur != nil {
		return cur.loadedAt
	}
	return time.Time{}
}

// Response returns the text for key, or "" when the key is empty or unknown.
func (s *Store) Response(key string) string {
	if strings.TrimSpace(key) == "" {
		s.logger.Warn("Invalid response key provided", "key", key)
		return ""
	}
	b := s.Bundle()
	if b == nil {
		return ""
	}
	text := b.Responses[key]
	s.logger.Debug("Resolved response", "key", key, "length", len(text))
	return text
}

// CommandResponse joins the non-empty responses mapped to command with a
// blank line, in declared order. Command names are case-insensitive; unknown
// commands resolve to "".
func (s *Store) CommandResponse(command string) string {
	b := s.Bundle()
	if b == nil {
		return ""
	}
	keys, ok := b.CommandsMap[strings.ToLower(command)]
	if !ok {
		s.logger.Debug("No response keys found for command", "command", command)
		return ""
	}

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if text := b.Responses[key]; text != "" {
			parts = append(parts, text)
		}
	}
	result := strings.Join(parts, "\n\n")
	s.logger.Debug("Resolved command response", "command", command, "keys", len(keys), "length", len(result))
	return result
}

// SystemPrompt returns the bundle's system prompt, possibly empty.
func (s *Store) SystemPrompt() string {
	if b := s.Bundle(); b != nil {
		return b.SystemPrompt
	}
	return ""
}

// PriorityProducts returns the ordered product list.
func (s *Store) PriorityProducts() []string {
	if b := s.Bundle(); b != nil {
		return append([]string(nil), b.Meta.PriorityProducts...)
	}
	return nil
}

// Links returns a copy of the link table.
func (s *Store) Links() map[string]string {
	out := map[string]string{}
	if b := s.Bundle(); b != nil {
		for k, v := range b.Links {
			out[k] = v
		}
	}
	return out
}

// CommandsMap returns a copy of the command to response-keys table.
func (s *Store) CommandsMap() map[string][]string {
	out := map[string][]string{}
	if b := s.Bundle(); b != nil {
		for k, v := range b.CommandsMap {
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

// Commands returns the sorted names in commands_map.
func (s *Store) Commands() []string {
	b := s.Bundle()
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.CommandsMap))
	for name := range b.CommandsMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableResponses returns the sorted response keys.
func (s *Store) AvailableResponses() []string {
	b := s.Bundle()
	if b == nil {
		return nil
	}
	keys := make([]string, 0, len(b.Responses))
	for k := range b.Responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String summarises the active bundle for logs and the CLI.
func (s *Store) String() string {
	b := s.Bundle()
	if b == nil {
		return fmt.Sprintf("knowledge(%s): not loaded", s.path)
	}
	return fmt.Sprintf("knowledge(%s): version %d, %d responses, %d links, %d commands",
		s.path, s.Version(), len(b.Responses), len(b.Links), len(b.CommandsMap))
}
