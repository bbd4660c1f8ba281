package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/deixis/shellcap"
)

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shellcap version %s\n", shellcap.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  go: %s\n", runtime.Version())
		},
	}
}
