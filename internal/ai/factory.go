package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/labsbot/internal/config"
)

// NewCompleter builds the Completer selected by cfg.Provider, wrapped in a
// circuit breaker unless cfg.BreakerFailures is zero. It returns
// ErrNotConfigured when no API key is set so callers can run without AI.
func NewCompleter(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Completer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	logger.Info("Initializing completion client", "provider", cfg.Provider, "model", cfg.Model)

	c, err := newVendor(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return WithBreaker(c, BreakerConfig{
		Name:        cfg.Provider,
		MaxFailures: cfg.BreakerFailures,
		Cooldown:    cfg.BreakerCooldown,
	}, logger), nil
}

func newVendor(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Completer, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg, logger), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg, logger), nil
	case ProviderGemini:
		c, err := NewGemini(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
	}
}
