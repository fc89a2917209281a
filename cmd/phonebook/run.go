package main

import (
	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/phonebook/core/cmd"
	"github.com/m3rciful/phonebook/internal/app"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        configFlag(cmd),
				ConfigEnvVar:      configEnvVar,
				DefaultConfigPath: defaultConfigPath,
				LoadConfig:        app.Load,
				Bootstrap:         app.Bootstrap,
			})
		},
	}
}
