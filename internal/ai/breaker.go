package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects calls after repeated
// failures.
var ErrCircuitOpen = errors.New("completion circuit open")

// BreakerConfig tunes WithBreaker. MaxFailures of zero disables the breaker.
type BreakerConfig struct {
	Name        string
	MaxFailures int
	Cooldown    time.Duration
}

// Breaker fails fast once the wrapped completer has failed MaxFailures times
// in a row, then lets a single probe through after Cooldown.
type Breaker struct {
	next Completer
	cb   *gobreaker.CircuitBreaker[*Completion]
}

// WithBreaker wraps next in a circuit breaker. It returns next unchanged when
// cfg disables the breaker.
func WithBreaker(next Completer, cfg BreakerConfig, logger *slog.Logger) Completer {
	if next == nil || cfg.MaxFailures <= 0 {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	log := logger.With("component", "completion_breaker")
	limit := uint32(cfg.MaxFailures)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= limit
		},
		// A user giving up is not a vendor failure.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[*Completion](settings)}
}

// Complete forwards to the wrapped completer unless the circuit is open.
func (b *Breaker) Complete(ctx context.Context, systemPrompt, userText string) (*Completion, error) {
	c, err := b.cb.Execute(func() (*Completion, error) {
		return b.next.Complete(ctx, systemPrompt, userText)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, completionError(b.cb.Name(), ErrCircuitOpen)
	}
	return c, err
}

// State reports the breaker state: closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
