package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/osaze/moneyflow/internal/config"
	"github.com/osaze/moneyflow/internal/simplefin"
)

func fetchCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch recent transactions from SimpleFIN and run them through the engine",
		Long: `Pull posted transactions from the configured SimpleFIN bridge and feed
them to the engine as events, oldest first. Requires simplefin.token to
be set in the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			token := config.LoadSimpleFINToken()
			if token == "" {
				return fmt.Errorf("no SimpleFIN token configured")
			}
			client, err := simplefin.NewClient(token)
			if err != nil {
				return err
			}

			end := time.Now()
			start := end.AddDate(0, 0, -days)
			events, err := client.FetchEvents(ctx, start, end)
			if err != nil {
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}
			sort.SliceStable(events, func(i, j int) bool {
				return events[i].Date.Before(events[j].Date)
			})

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := buildEngine(store)
			if err != nil {
				return err
			}

			bar := progressbar.Default(int64(len(events)), "processing")
			for _, event := range events {
				if err := eng.ProcessEvent(ctx, event); err != nil {
					return fmt.Errorf("failed to process event %s: %w", event.ID, err)
				}
				_ = bar.Add(1)
			}

			cmd.Printf("\nProcessed %d events from the last %d days\n", len(events), days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "how many days of history to fetch")
	return cmd
}
