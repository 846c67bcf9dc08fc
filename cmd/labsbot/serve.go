package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
	tgbot "github.com/go-telegram/bot"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/edgard/labsbot/internal/ai"
	"github.com/edgard/labsbot/internal/assistant"
	"github.com/edgard/labsbot/internal/bot"
	"github.com/edgard/labsbot/internal/bot/commands"
	"github.com/edgard/labsbot/internal/bot/handlers"
	"github.com/edgard/labsbot/internal/bot/tasks"
	"github.com/edgard/labsbot/internal/config"
	"github.com/edgard/labsbot/internal/dispatch"
	"github.com/edgard/labsbot/internal/knowledge"
	"github.com/edgard/labsbot/internal/logger"
	"github.com/edgard/labsbot/internal/ratelimit"
	"github.com/edgard/labsbot/internal/telegram"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts.configPath)
		},
	}
}

// serve initializes every component, runs the bot until ctx is cancelled
// and reports a non-cancellation failure as an error.
func serve(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	clock := clockwork.NewRealClock()
	store, dispatcher, err := newCommandStack(ctx, cfg, log, clock)
	if err != nil {
		return err
	}

	completer, err := ai.NewCompleter(ctx, cfg.AI, log)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		log.Warn("No AI API key configured, free-form questions are disabled", "provider", cfg.AI.Provider)
	case err != nil:
		log.Error("Failed to initialize completion client", "error", err)
		return err
	}

	limiter, err := ratelimit.New(ratelimit.Config{
		MaxMessages: cfg.RateLimit.MaxMessages,
		Window:      cfg.RateLimit.Window,
		MaxUsers:    cfg.RateLimit.MaxUsers,
	}, clock, log)
	if err != nil {
		log.Error("Failed to create rate limiter", "error", err)
		return err
	}

	responder := assistant.New(completer, store, limiter, assistant.Config{
		DefaultSystemPrompt: cfg.AI.DefaultSystemPrompt,
		Timeout:             cfg.AI.Timeout,
		MaxMessageLength:    cfg.Telegram.MaxMessageLength,
		TriggerKeywords:     cfg.Telegram.TriggerKeywords,
		GroupOnly:           cfg.Telegram.GroupOnly,
		ErrorMessage:        cfg.Messages.AIError,
		RateLimitedMessage:  cfg.Messages.RateLimited,
	}, log)

	hDeps := handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Dispatcher: dispatcher,
		Responder:  responder,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMentionHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return err
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllHandlers(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return err
	}

	sched, err := bot.NewScheduler(log,
		tasks.RegisterAllTasks(tasks.TaskDeps{Logger: log, Config: cfg, Store: store}),
		gocron.WithLogger(log.With("component", "gocron")),
		gocron.WithClock(clock),
	)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}

	var watcher bot.Watcher
	if cfg.Knowledge.Watch {
		watcher = knowledge.NewWatcher(store, log)
	}

	log.Info("Starting bot...", "knowledge", store.String(), "ai_enabled", responder.Enabled())
	runErr := bot.NewBot(log, tg, sched, watcher).Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return runErr
	}

	log.Info("Bot stopped gracefully.")
	return nil
}

// newCommandStack opens the knowledge bundle and builds a dispatcher with
// the knowledge and built-in commands registered.
func newCommandStack(ctx context.Context, cfg *config.Config, log *slog.Logger, clock clockwork.Clock) (*knowledge.Store, *dispatch.Dispatcher, error) {
	store, err := knowledge.Open(ctx, cfg.Knowledge.Path, log, knowledge.WithClock(clock))
	if err != nil {
		log.Error("Failed to load knowledge bundle", "path", cfg.Knowledge.Path, "error", err)
		return nil, nil, err
	}

	dispatcher := dispatch.New(log, dispatch.Messages{
		UnknownCommand: cfg.Messages.UnknownCommand,
		GeneralError:   cfg.Messages.GeneralError,
	})
	commands.Register(commands.Deps{
		Logger:     log,
		Config:     cfg,
		Store:      store,
		Dispatcher: dispatcher,
		Clock:      clock,
		StartedAt:  clock.Now(),
	})
	return store, dispatcher, nil
}
