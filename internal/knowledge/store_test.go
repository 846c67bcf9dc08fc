package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBundle = `{
  "responses": {
    "zenthink_overview": "ZenThink is our AI research assistant. Visit {links.zenthink}.",
    "zenthink_website": "Site: {links.zenthink}",
    "pump_overview": "Pump Arena is a trading game.",
    "broken": "See {links.missing} and {links.empty}.",
    "weekly_update_global": "Shipped v2 this week."
  },
  "links": {"zenthink": "https://zenthink.example", "empty": ""},
  "commands_map": {
    "zenthink": ["zenthink_overview", "zenthink_website"],
    "pump": ["pump_overview", "does_not_exist"],
    "empty": ["nothing_here"]
  },
  "meta": {"priority_products": ["ZenThink AI", "Pump Arena"]},
  "system_prompt": "You are the Labs assistant."
}`

func writeBundle(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func bumpMTime(t *testing.T, path string, d time.Duration) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	mt := info.ModTime().Add(d)
	require.NoError(t, os.Chtimes(path, mt, mt))
}

func openSample(t *testing.T) (*Store, string) {
	t.Helper()
	path := writeBundle(t, t.TempDir(), "bundle.json", sampleBundle)
	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	return s, path
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("loads bundle", func(t *testing.T) {
		t.Parallel()
		s, _ := openSample(t)
		assert.True(t, s.IsLoaded())
		assert.Equal(t, uint64(1), s.Version())
		assert.Equal(t, "You are the Labs assistant.", s.SystemPrompt())
		assert.Equal(t, []string{"ZenThink AI", "Pump Arena"}, s.PriorityProducts())
		assert.Equal(t, []string{"empty", "pump", "zenthink"}, s.Commands())
		assert.Len(t, s.AvailableResponses(), 5)
		assert.Equal(t, "https://zenthink.example", s.Links()["zenthink"])
		assert.Equal(t, []string{"pump_overview", "does_not_exist"}, s.CommandsMap()["pump"])
	})

	t.Run("records load time from clock", func(t *testing.T) {
		t.Parallel()
		clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
		path := writeBundle(t, t.TempDir(), "bundle.json", sampleBundle)
		s, err := Open(context.Background(), path, nil, WithClock(clock))
		require.NoError(t, err)
		assert.Equal(t, clock.Now(), s.LoadedAt())
	})

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: `{"responses": `},
		{name: "missing responses", content: `{"links": {}}`},
		{name: "empty response key in command", content: `{"responses": {}, "commands_map": {"x": [""]}}`},
		{name: "context rule without keywords", content: `{"responses": {}, "context_rules": [{"response_key": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeBundle(t, t.TempDir(), "bundle.json", tt.content)
			s, err := Open(context.Background(), path, nil)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, ErrBundleLoad))
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, path, loadErr.Path)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.json"), nil)
		require.ErrorIs(t, err, ErrBundleLoad)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		path := writeBundle(t, t.TempDir(), "bundle.json", sampleBundle)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Open(ctx, path, nil)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("yaml bundle", func(t *testing.T) {
		t.Parallel()
		content := "responses:\n  a: \"Go to {links.home}\"\nlinks:\n  home: https://labs.example\ncommands_map:\n  home: [a]\n"
		path := writeBundle(t, t.TempDir(), "bundle.yaml", content)
		s, err := Open(context.Background(), path, nil)
		require.NoError(t, err)
		assert.Equal(t, "Go to https://labs.example", s.CommandResponse("home"))
	})
}

func TestLinkInterpolation(t *testing.T) {
	t.Parallel()
	s, _ := openSample(t)

	assert.Equal(t, "ZenThink is our AI research assistant. Visit https://zenthink.example.", s.Response("zenthink_overview"))
	assert.Equal(t, "See {links.missing} and {links.empty}.", s.Response("broken"))
	assert.Equal(t, []string{"{links.empty}", "{links.missing}"}, s.Bundle().UnresolvedPlaceholders())
}

func TestResponse(t *testing.T) {
	t.Parallel()
	s, _ := openSample(t)

	assert.Equal(t, "Pump Arena is a trading game.", s.Response("pump_overview"))
	assert.Empty(t, s.Response("unknown"))
	assert.Empty(t, s.Response(""))
	assert.Empty(t, s.Response("   "))
}

func TestCommandResponse(t *testing.T) {
	t.Parallel()

	t.Run("joins in declared order", func(t *testing.T) {
		t.Parallel()
		s, _ := openSample(t)
		assert.Equal(t,
			"ZenThink is our AI research assistant. Visit https://zenthink.example.\n\nSite: https://zenthink.example",
			s.CommandResponse("zenthink"))
	})

	t.Run("skips missing keys", func(t *testing.T) {
		t.Parallel()
		path := writeBundle(t, t.TempDir(), "bundle.json",
			`{"responses": {"a": "X"}, "commands_map": {"cmd": ["a", "missing"]}}`)
		s, err := Open(context.Background(), path, nil)
		require.NoError(t, err)
		assert.Equal(t, "X", s.CommandResponse("cmd"))
		assert.Equal(t, []string{"cmd -> missing"}, s.Bundle().DanglingKeys())
	})

	t.Run("command names ignore case", func(t *testing.T) {
		t.Parallel()
		path := writeBundle(t, t.TempDir(), "bundle.json",
			`{"responses": {"a": "X", "b": "Y"}, "commands_map": {"About": ["a"], "about": ["b"]}}`)
		s, err := Open(context.Background(), path, nil)
		require.NoError(t, err)
		assert.Equal(t, "X\n\nY", s.CommandResponse("about"))
		assert.Equal(t, "X\n\nY", s.CommandResponse("ABOUT"))
		assert.Equal(t, []string{"about"}, keysOf(s.Bundle().CommandsMap))
	})

	t.Run("nothing resolves", func(t *testing.T) {
		t.Parallel()
		s, _ := openSample(t)
		assert.Empty(t, s.CommandResponse("empty"))
		assert.Empty(t, s.CommandResponse("unknown"))
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("unchanged file keeps bundle", func(t *testing.T) {
		t.Parallel()
		s, _ := openSample(t)
		before := s.Bundle()

		reloaded, err := s.Refresh(context.Background())
		require.NoError(t, err)
		assert.False(t, reloaded)
		assert.Same(t, before, s.Bundle())
		assert.Equal(t, uint64(1), s.Version())
	})

	t.Run("newer file is reloaded", func(t *testing.T) {
		t.Parallel()
		s, path := openSample(t)
		var notified *Bundle
		s.OnReload(func(b *Bundle) { notified = b })

		writeBundle(t, filepath.Dir(path), filepath.Base(path), `{"responses": {"a": "new"}, "commands_map": {"a": ["a"]}}`)
		bumpMTime(t, path, time.Minute)

		reloaded, err := s.Refresh(context.Background())
		require.NoError(t, err)
		assert.True(t, reloaded)
		assert.Equal(t, "new", s.CommandResponse("a"))
		assert.Equal(t, uint64(2), s.Version())
		assert.Same(t, s.Bundle(), notified)
	})

	t.Run("broken file keeps previous bundle", func(t *testing.T) {
		t.Parallel()
		s, path := openSample(t)
		before := s.Bundle()

		writeBundle(t, filepath.Dir(path), filepath.Base(path), `{not json`)
		bumpMTime(t, path, time.Minute)

		reloaded, err := s.Refresh(context.Background())
		require.ErrorIs(t, err, ErrBundleLoad)
		assert.False(t, reloaded)
		assert.Same(t, before, s.Bundle())
		assert.Equal(t, "Pump Arena is a trading game.", s.Response("pump_overview"))
	})

	t.Run("deleted file keeps previous bundle", func(t *testing.T) {
		t.Parallel()
		s, path := openSample(t)
		require.NoError(t, os.Remove(path))

		_, err := s.Refresh(context.Background())
		require.Error(t, err)
		assert.True(t, s.IsLoaded())
		assert.NotEmpty(t, s.CommandResponse("zenthink"))
	})
}

func TestReloadIsAtomicForReaders(t *testing.T) {
	t.Parallel()

	const (
		first  = `{"responses": {"a": "A1", "b": "A2"}, "commands_map": {"cmd": ["a", "b"]}}`
		second = `{"responses": {"a": "B1", "b": "B2"}, "commands_map": {"cmd": ["a", "b"]}}`
	)
	path := writeBundle(t, t.TempDir(), "bundle.json", first)
	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var torn atomic.Int64
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got := s.CommandResponse("cmd")
				if got != "A1\n\nA2" && got != "B1\n\nB2" {
					torn.Add(1)
				}
			}
		}()
	}

	for i := range 50 {
		content := first
		if i%2 == 0 {
			content = second
		}
		writeBundle(t, filepath.Dir(path), filepath.Base(path), content)
		_, err := s.Load(context.Background())
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, torn.Load())
	assert.Equal(t, uint64(51), s.Version())
}

func keysOf(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestLoadForcesReload(t *testing.T) {
	t.Parallel()
	s, _ := openSample(t)

	version, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)
	assert.Contains(t, s.String(), "version 2")
}
