package main

import (
	"github.com/spf13/cobra"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "phonebook",
		Short:         "Telegram contact directory bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file path (default $"+configEnvVar+" or "+defaultConfigPath+").")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func configFlag(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("config")
	return v
}
