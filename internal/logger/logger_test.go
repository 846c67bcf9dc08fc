package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "warn", true)
	log.Info("dropped")
	log.Warn("kept", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestUpdateAttrs(t *testing.T) {
	t.Parallel()

	attrs := UpdateAttrs(&models.Update{
		ID: 9,
		Message: &models.Message{
			ID:   3,
			Chat: models.Chat{ID: -100, Type: models.ChatTypeSupergroup},
			From: &models.User{ID: 77},
			Text: "hello",
		},
	})
	assert.Contains(t, attrs, "message")
	assert.Contains(t, attrs, int64(-100))
	assert.Contains(t, attrs, int64(77))

	assert.Equal(t, []any{"update_type", "nil"}, UpdateAttrs(nil))
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "ééé...", truncateString("éééééééé", 6))
	assert.Equal(t, "...", truncateString("abcdef", 2))
}
