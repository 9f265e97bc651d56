package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show fleet-wide automation statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.GetStats(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Total rules\t%d\n", stats.TotalRules)
			fmt.Fprintf(w, "Active rules\t%d\n", stats.ActiveRules)
			fmt.Fprintf(w, "Total executions\t%d\n", stats.TotalExecutions)
			fmt.Fprintf(w, "Successful\t%d\n", stats.SuccessfulExecutions)
			fmt.Fprintf(w, "Failed\t%d\n", stats.FailedExecutions)
			fmt.Fprintf(w, "Amount processed\t%.2f\n", stats.TotalAmountProcessed)
			fmt.Fprintf(w, "Monthly savings\t%.2f\n", stats.MonthlySavings)
			fmt.Fprintf(w, "Efficiency\t%.1f%%\n", stats.Efficiency)
			return w.Flush()
		},
	}
}
