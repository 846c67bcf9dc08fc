// Package ratelimit decides whether a user's message should be throttled.
package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
)

// Decision is the outcome of checking one message.
type Decision struct {
	ShouldRateLimit   bool
	RemainingCooldown time.Duration
	Reason            string
}

// CooldownSeconds rounds the remaining cooldown up to whole seconds.
func (d Decision) CooldownSeconds() int {
	return int(math.Ceil(d.RemainingCooldown.Seconds()))
}

// Limiter records a user's message and reports whether it must be throttled.
type Limiter interface {
	ProcessMessage(userID int64, text string) Decision
}

// Noop never throttles.
type Noop struct{}

func (Noop) ProcessMessage(int64, string) Decision { return Decision{} }

// Config configures a WindowLimiter.
type Config struct {
	MaxMessages int
	Window      time.Duration
	MaxUsers    int
}

// WindowLimiter allows MaxMessages per user in any sliding Window. Per-user
// history lives in a bounded expirable LRU; a user idle for a whole Window is
// dropped.
type WindowLimiter struct {
	mu      sync.Mutex
	cfg     Config
	clock   clockwork.Clock
	history *expirable.LRU[int64, []time.Time]
	logger  *slog.Logger
}

// New returns a Limiter for cfg. A non-positive MaxMessages or Window
// disables limiting. The returned limiter lives for the rest of the process.
func New(cfg Config, clock clockwork.Clock, logger *slog.Logger) (Limiter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxMessages <= 0 || cfg.Window <= 0 {
		logger.Info("Rate limiting disabled")
		return Noop{}, nil
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.MaxUsers <= 0 {
		cfg.MaxUsers = 10000
	}

	return &WindowLimiter{
		cfg:     cfg,
		clock:   clock,
		history: expirable.NewLRU[int64, []time.Time](cfg.MaxUsers, nil, cfg.Window),
		logger:  logger.With("component", "rate_limiter"),
	}, nil
}

// ProcessMessage counts the message against userID unless it is throttled.
func (l *WindowLimiter) ProcessMessage(userID int64, _ string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	cutoff := now.Add(-l.cfg.Window)

	past, _ := l.history.Get(userID)
	recent := past[:0:0]
	for _, ts := range past {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.cfg.MaxMessages {
		remaining := recent[0].Add(l.cfg.Window).Sub(now)
		l.history.Add(userID, recent)
		l.logger.Debug("User rate limited", "user_id", userID, "remaining", remaining)
		return Decision{
			ShouldRateLimit:   true,
			RemainingCooldown: remaining,
			Reason:            fmt.Sprintf("rate limit exceeded: %d messages per %s", l.cfg.MaxMessages, l.cfg.Window),
		}
	}

	l.history.Add(userID, append(recent, now))
	return Decision{}
}
