package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/edgard/labsbot/internal/config"
	"github.com/edgard/labsbot/internal/dispatch"
	"github.com/edgard/labsbot/internal/logger"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "ask <command> [args...]",
		Short: "Run a chat command locally and print the reply",
		Long:  "Dispatch a command against the configured knowledge bundle without connecting to Telegram.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated(opts.configPath)
			if err != nil {
				return err
			}
			return ask(cmd.Context(), cmd.OutOrStdout(), cfg, userID, args)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User ID to run the command as")
	return cmd
}

func ask(ctx context.Context, out io.Writer, cfg *config.Config, userID int64, args []string) error {
	_, dispatcher, err := newCommandStack(ctx, cfg, logger.Discard(), clockwork.NewRealClock())
	if err != nil {
		return err
	}

	name := strings.TrimPrefix(args[0], cfg.Telegram.CommandPrefix)
	res := dispatcher.Dispatch(ctx, name, &dispatch.Request{
		Args:    args[1:],
		Text:    strings.Join(args, " "),
		UserID:  userID,
		Replier: writerReplier{out},
	})
	switch {
	case res.Success:
		return nil
	case res.Reason == dispatch.ReasonUnknownCommand:
		return fmt.Errorf("%w: %s", dispatch.ErrUnknownCommand, name)
	default:
		return fmt.Errorf("command %q failed: %s", name, res.Reason)
	}
}

// writerReplier prints replies, separating messages with a blank line.
type writerReplier struct {
	w io.Writer
}

func (r writerReplier) Reply(_ context.Context, s string) error {
	_, err := fmt.Fprintf(r.w, "%s\n\n", s)
	return err
}

func (r writerReplier) Send(ctx context.Context, s string) error {
	return r.Reply(ctx, s)
}
