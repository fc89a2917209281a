package main

import (
	"fmt"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/phonebook/core/cmd"
	"github.com/m3rciful/phonebook/internal/app"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := corecmd.ResolveConfigPath(corecmd.Options{
				ConfigPath:        configFlag(cmd),
				ConfigEnvVar:      configEnvVar,
				DefaultConfigPath: defaultConfigPath,
			})
			if err != nil {
				return err
			}
			cfg, err := app.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := app.Migrate(cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
