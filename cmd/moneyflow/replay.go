package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/osaze/moneyflow/internal/ofx"
)

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <statement.ofx>",
		Short: "Replay an OFX/QFX statement through the engine",
		Long: `Parse a bank statement and feed its transactions to the engine as
events, oldest first. Useful for backtesting rules against real history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0]) // #nosec G304 -- user-supplied statement file
			if err != nil {
				return fmt.Errorf("failed to open statement: %w", err)
			}
			defer func() { _ = f.Close() }()

			events, err := ofx.NewParser().ParseFile(ctx, f)
			if err != nil {
				return err
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

			bar := progressbar.Default(int64(len(events)), "replaying")
			for _, event := range events {
				if err := eng.ProcessEvent(ctx, event); err != nil {
					return fmt.Errorf("failed to process event %s: %w", event.ID, err)
				}
				_ = bar.Add(1)
			}

			cmd.Printf("\nReplayed %d events\n", len(events))
			return nil
		},
	}
	return cmd
}
