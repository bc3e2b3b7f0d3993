package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/patterns"
	"github.com/spf13/cobra"
)

// NewCategoriesCmd creates the categories command.
func NewCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the finding categories and their rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := patterns.LoadDefault()
			if err != nil {
				return err
			}
			path, err := cmd.Flags().GetString("patterns")
			if err != nil {
				return err
			}
			if path != "" {
				if catalog, err = catalog.LoadFile(path); err != nil {
					return common.NewScanError(common.KindConfig, "failed to load patterns file", err)
				}
			}

			rules, err := cmd.Flags().GetBool("rules")
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTIER\tRULES\tMIN ENTROPY")
			for _, category := range catalog.Categories() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\n", category.Name, category.Tier, len(category.Rules), category.MinEntropy)
				if rules {
					for _, rule := range category.Rules {
						fmt.Fprintf(tw, "  %s\t%s\t\t\n", rule.ID, rule.Severity)
					}
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("patterns", "", "YAML patterns file to merge over the built-in catalog")
	cmd.Flags().Bool("rules", false, "Also list the rules of each category")
	return cmd
}
