package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osaze/moneyflow/internal/action"
	"github.com/osaze/moneyflow/internal/config"
	"github.com/osaze/moneyflow/internal/engine"
	"github.com/osaze/moneyflow/internal/plaid"
	"github.com/osaze/moneyflow/internal/rules"
	"github.com/osaze/moneyflow/internal/service"
	"github.com/osaze/moneyflow/internal/simplefin"
	"github.com/osaze/moneyflow/internal/storage"
)

// openStore opens the configured rule store: SQLite when a database path
// is set, otherwise the in-memory store.
func openStore(ctx context.Context) (service.RuleStore, error) {
	cfg := config.LoadEngineConfig()
	if cfg.DatabasePath == "memory" {
		slog.Info("Using in-memory rule store")
		return storage.NewMemoryStore(nil), nil
	}

	store, err := storage.NewSQLiteStore(cfg.DatabasePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return store, nil
}

// buildEngine wires the engine with its collaborators. Balances come from
// Plaid when credentials are configured, falling back to SimpleFIN; money
// movement runs in dry-run mode unless a real banking integration is
// plugged in by the host.
func buildEngine(store service.RuleStore) (*engine.Engine, error) {
	var balances service.BalanceProvider
	plaidCfg := config.LoadPlaidConfig()
	if plaidCfg.ClientID != "" {
		client, err := plaid.NewClient(plaidCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create plaid client: %w", err)
		}
		balances = client
		slog.Info("Using Plaid balance provider", "environment", plaidCfg.Environment)
	} else if token := config.LoadSimpleFINToken(); token != "" {
		client, err := simplefin.NewClient(token)
		if err != nil {
			return nil, fmt.Errorf("failed to create simplefin client: %w", err)
		}
		balances = client
		slog.Info("Using SimpleFIN balance provider")
	} else {
		slog.Warn("No account data provider configured; percentage and remaining amounts will fail")
	}

	executor := action.NewExecutor(balances, action.NewDryRunMover(),
		action.WithNotifier(action.NewLogNotifier()))

	cfg := config.LoadEngineConfig()
	return engine.NewWithConfig(
		store,
		rules.NewClassifier(nil),
		executor,
		engine.Config{DefaultMaxRetries: cfg.DefaultMaxRetries},
		nil,
	), nil
}
