package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/labsbot/internal/logger"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []*bot.SendMessageParams
	actions int
	err     error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{ID: len(f.sent)}, nil
}

func (f *fakeSender) SendChatAction(context.Context, *bot.SendChatActionParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions++
	return true, nil
}

func (f *fakeSender) actionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actions
}

func testMessage() *models.Message {
	return &models.Message{ID: 10, MessageThreadID: 3, Chat: models.Chat{ID: -5}}
}

func TestReplierReply(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	r := NewReplier(s, testMessage(), 100)

	require.NoError(t, r.Reply(context.Background(), "Short answer."))
	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(-5), s.sent[0].ChatID)
	assert.Equal(t, 3, s.sent[0].MessageThreadID)
	assert.Equal(t, "Short answer.", s.sent[0].Text)
	require.NotNil(t, s.sent[0].ReplyParameters)
	assert.Equal(t, 10, s.sent[0].ReplyParameters.MessageID)
}

func TestReplierChunksLongText(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	r := NewReplier(s, testMessage(), 100)
	long := strings.Repeat("Every sentence here is about forty chars. ", 6)

	require.NoError(t, r.Reply(context.Background(), long))
	require.Greater(t, len(s.sent), 1)
	assert.NotNil(t, s.sent[0].ReplyParameters)
	for _, p := range s.sent[1:] {
		assert.Nil(t, p.ReplyParameters)
	}
	for _, p := range s.sent {
		assert.LessOrEqual(t, len([]rune(p.Text)), 100)
	}
}

func TestReplierSend(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	r := NewReplier(s, testMessage(), 100)
	require.NoError(t, r.Send(context.Background(), "follow up"))
	require.Len(t, s.sent, 1)
	assert.Nil(t, s.sent[0].ReplyParameters)

	require.NoError(t, r.Send(context.Background(), "   "))
	assert.Len(t, s.sent, 1, "blank text sends nothing")
}

func TestReplierError(t *testing.T) {
	t.Parallel()

	s := &fakeSender{err: errors.New("forbidden")}
	err := NewReplier(s, testMessage(), 100).Reply(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestStartTyping(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	stop := StartTyping(context.Background(), s, -5, logger.Discard())
	require.Eventually(t, func() bool { return s.actionCount() >= 1 }, time.Second, 10*time.Millisecond)
	stop()
	n := s.actionCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, s.actionCount())
}

type fakeRegistrar struct {
	patterns []string
}

func (f *fakeRegistrar) RegisterHandler(_ bot.HandlerType, pattern string, _ bot.MatchType, _ bot.HandlerFunc, _ ...bot.Middleware) string {
	f.patterns = append(f.patterns, pattern)
	return pattern
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				order = append(order, name)
				next(ctx, b, u)
			}
		}
	}
	handler := func(context.Context, *bot.Bot, *models.Update) { order = append(order, "handler") }

	wrapped := applyMiddleware(handler, []bot.Middleware{mw("outer"), mw("inner")})
	wrapped(context.Background(), nil, &models.Update{})
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)

	reg := &fakeRegistrar{}
	err := RegisterHandlers(reg, logger.Discard(), map[string]RegisteredHandler{
		"command": {HandlerType: bot.HandlerTypeMessageText, Pattern: "!", Handler: handler, MatchType: bot.MatchTypePrefix},
		"nil":     {Pattern: "skip"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"!"}, reg.patterns)

	assert.Error(t, RegisterHandlers(nil, logger.Discard(), nil))
}

func TestNewTelegramBotRequiresToken(t *testing.T) {
	t.Parallel()
	_, err := NewTelegramBot("", logger.Discard())
	assert.Error(t, err)
}
