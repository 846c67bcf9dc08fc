package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgard/labsbot/internal/config"
	"github.com/edgard/labsbot/internal/knowledge"
	"github.com/edgard/labsbot/internal/logger"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [bundle]",
		Short: "Validate a knowledge bundle",
		Long: "Load the knowledge bundle (the configured one unless a path is given) " +
			"and report commands whose response keys or link placeholders do not resolve.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := bundlePath(opts, args)
			if err != nil {
				return err
			}
			return checkBundle(cmd, path, strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when dangling keys or unresolved links are found")
	return cmd
}

func checkBundle(cmd *cobra.Command, path string, strict bool) error {
	store, err := knowledge.Open(cmd.Context(), path, logger.Discard())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	b := store.Bundle()
	fmt.Fprintf(out, "bundle:    %s\n", path)
	fmt.Fprintf(out, "responses: %d\n", len(b.Responses))
	fmt.Fprintf(out, "commands:  %s\n", strings.Join(store.Commands(), ", "))
	fmt.Fprintf(out, "products:  %s\n", strings.Join(store.PriorityProducts(), ", "))
	fmt.Fprintf(out, "rules:     %d\n", len(b.Rules()))

	dangling := b.DanglingKeys()
	unresolved := b.UnresolvedPlaceholders()
	report(out, "dangling response keys", dangling)
	report(out, "unresolved links", unresolved)

	if strict && len(dangling)+len(unresolved) > 0 {
		return fmt.Errorf("bundle has %d dangling keys and %d unresolved links", len(dangling), len(unresolved))
	}
	return nil
}

func report(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}

// bundlePath returns the bundle named in args, or the one in the
// configuration file.
func bundlePath(opts *rootOptions, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := config.LoadUnvalidated(opts.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", opts.configPath, "error", err)
		return "", err
	}
	return cfg.Knowledge.Path, nil
}
