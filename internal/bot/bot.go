// Package bot wires the Telegram listener, the scheduler and the knowledge
// watcher together and runs them until shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Listener receives updates until ctx is cancelled. *bot.Bot satisfies it.
type Listener interface {
	Start(ctx context.Context)
}

// Watcher follows changes to the knowledge bundle until ctx is cancelled.
type Watcher interface {
	Run(ctx context.Context) error
}

// Bot represents the running application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	listener  Listener
	scheduler *Scheduler
	watcher   Watcher
}

// NewBot creates a Bot. scheduler and watcher may be nil.
func NewBot(logger *slog.Logger, listener Listener, scheduler *Scheduler, watcher Watcher) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		listener:  listener,
		scheduler: scheduler,
		watcher:   watcher,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram listener...")
		b.listener.Start(gCtx)
		b.logger.Info("Telegram listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram listener stopped without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	if b.scheduler != nil {
		g.Go(func() error {
			if err := b.scheduler.Start(gCtx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	if b.watcher != nil {
		g.Go(func() error {
			if err := b.watcher.Run(gCtx); err != nil {
				// Scheduled refresh still covers the bundle.
				b.logger.Error("Knowledge watcher failed", "error", err)
			}
			return nil
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
