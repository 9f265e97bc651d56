package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/osaze/moneyflow/internal/service"
)

func historyCmd() *cobra.Command {
	var ruleID string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show execution history, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			execs, err := store.GetExecutions(ctx, service.ExecutionFilter{RuleID: ruleID, Limit: limit})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tRULE\tSTATUS\tAMOUNT\tERROR")
			for _, e := range execs {
				amount := ""
				if e.ActionResult != nil {
					amount = fmt.Sprintf("%.2f", e.ActionResult.Amount)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.ExecutionTime.Format("2006-01-02 15:04:05"),
					e.RuleName, e.Status, amount, e.ErrorMessage)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&ruleID, "rule", "", "filter by rule id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records")
	return cmd
}
