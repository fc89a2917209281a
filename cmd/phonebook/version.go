package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/phonebook/core/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Get()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "phonebook %s %s\n", info, info.GoVersion)
			return err
		},
	}
}
