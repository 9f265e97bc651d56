package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osaze/moneyflow/internal/config"
	"github.com/osaze/moneyflow/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadEngineConfig()
			if cfg.DatabasePath == "memory" {
				return fmt.Errorf("in-memory store needs no migrations")
			}

			store, err := storage.NewSQLiteStore(cfg.DatabasePath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("Database migrated: %s\n", cfg.DatabasePath)
			return nil
		},
	}
}
