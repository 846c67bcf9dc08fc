package main

import (
	"github.com/spf13/cobra"
)

const defaultConfigPath = "./config.yaml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "labsbot",
		Short:         "F3 AI Labs product assistant for Telegram",
		Long:          "labsbot answers product questions from a knowledge bundle and an AI completion backend.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to configuration file")

	root.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newAskCmd(opts),
	)
	return root
}
