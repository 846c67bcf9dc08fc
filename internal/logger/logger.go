// Package logger configures slog and logs Telegram updates.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

type requestIDKey struct{}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a stdout logger and installs it as the slog default.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := New(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

// New creates a logger writing to w as JSON or text.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Middleware logs every update with a fresh request_id, which is also put on
// the context for downstream handlers.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()
			requestID := uuid.NewString()
			ctx = WithRequestID(ctx, requestID)

			entry := log.With(append([]any{"request_id", requestID}, UpdateAttrs(update)...)...)
			entry.DebugContext(ctx, "Processing update")

			next(ctx, b, update)

			entry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

// UpdateAttrs returns the log attributes describing update.
func UpdateAttrs(update *models.Update) []any {
	if update == nil {
		return []any{"update_type", "nil"}
	}
	attrs := []any{"update_id", update.ID}

	switch {
	case update.Message != nil:
		msg := update.Message
		attrs = append(attrs,
			"update_type", "message",
			"message_id", msg.ID,
			"chat_id", msg.Chat.ID,
			"chat_type", string(msg.Chat.Type),
			"text_preview", truncateString(msg.Text, 50),
		)
		if msg.From != nil {
			attrs = append(attrs, "user_id", msg.From.ID)
		}
	case update.EditedMessage != nil:
		attrs = append(attrs, "update_type", "edited_message", "chat_id", update.EditedMessage.Chat.ID)
	default:
		attrs = append(attrs, "update_type", "other")
	}
	return attrs
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
