package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/osaze/moneyflow/internal/config"
)

func runCmd() *cobra.Command {
	var seedTemplates bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the automation engine",
		Long: `Run the engine loop: evaluates scheduled rules once per tick until
interrupted. Incoming transaction events are fed by the host's event
source; this command drives the clock side.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := buildEngine(store)
			if err != nil {
				return err
			}

			if seedTemplates {
				seeded, err := eng.SeedTemplates(ctx)
				if err != nil {
					return err
				}
				slog.Info("Seeded rule templates", "count", seeded)
			}

			cfg := config.LoadEngineConfig()
			slog.Info("Engine running", "tick_interval", cfg.TickInterval)

			ticker := time.NewTicker(cfg.TickInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					slog.Info("Engine stopped")
					return nil
				case <-ticker.C:
					if err := eng.ProcessScheduledRules(ctx); err != nil {
						slog.Error("Scheduled cycle failed", "error", err)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&seedTemplates, "seed-templates", false, "install predefined rule templates before starting")
	return cmd
}
