package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/datastore"
	"github.com/aleister1102/jssecretscanner/internal/urlhandler"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <target>",
		Short: "List recorded scans of a target",
		Long: `History lists the scans of <target> recorded in the SQLite database given by
--history-db or storage_config.sqlite_path, newest first.`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryCmd,
	}
	cmd.Flags().String("history-db", "", "SQLite database written by scan --history-db")
	cmd.Flags().IntP("limit", "l", 10, "Maximum number of scans to list")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("history-db") {
		if cfg.StorageConfig.SQLitePath, err = cmd.Flags().GetString("history-db"); err != nil {
			return common.NewScanError(common.KindConfig, "invalid flags", err)
		}
	}
	if cfg.StorageConfig.SQLitePath == "" {
		return common.NewScanError(common.KindConfig, "no history database configured",
			common.NewValidationError("history-db", "", "set --history-db or storage_config.sqlite_path"))
	}

	origin, err := urlhandler.NormalizeOrigin(args[0])
	if err != nil {
		return common.NewScanError(common.KindConfig, "invalid target", err)
	}

	db, err := datastore.NewHistoryDB(cfg.StorageConfig.SQLitePath, zerolog.Nop())
	if err != nil {
		return err
	}
	defer db.Close()

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return common.NewScanError(common.KindConfig, "invalid flags", err)
	}
	entries, err := db.Recent(cmd.Context(), origin.Host, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No scans recorded for %s\n", origin.Host)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tRESOURCES\tFINDINGS\tHIGH RISK\tDURATION\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%d\t%d\t%s\t%s\n",
			e.ID,
			e.ScanStartTime.Local().Format(time.DateTime),
			e.Status,
			e.ResourcesSucceeded, e.ResourcesAttempted,
			e.TotalFindings,
			e.HighRiskCount,
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
			e.ErrorKind.String)
	}
	return tw.Flush()
}
