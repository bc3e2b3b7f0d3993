package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jssecretscanner",
		Short: "Find leaked secrets and endpoints in the JavaScript of a web origin",
		Long: `jssecretscanner fetches the entry page of an origin, follows every script it
references (static tags, dynamic imports, webpack chunks) and reports secrets,
credentials, endpoints and contact details found in them.

Scripts are fetched, never executed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: $JSSECRETSCANNER_CONFIG_PATH, then config.yaml or config.json)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCategoriesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
