// Package config loads moneyflow settings through viper and resolves
// user-supplied filesystem paths.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/osaze/moneyflow/internal/plaid"
)

// Engine holds the runtime configuration for the automation engine.
type Engine struct {
	DatabasePath      string
	TickInterval      time.Duration
	DefaultMaxRetries int
}

// LoadEngineConfig loads engine configuration from Viper with defaults.
// Precedence follows Viper: flags, then MONEYFLOW_ env vars, then the
// config file.
func LoadEngineConfig() Engine {
	cfg := Engine{
		DatabasePath:      ExpandPath("~/.local/share/moneyflow/moneyflow.db"),
		TickInterval:      time.Minute,
		DefaultMaxRetries: 3,
	}

	if v := viper.GetString("database.path"); v != "" {
		cfg.DatabasePath = ExpandPath(v)
	}
	if v := viper.GetDuration("engine.tick_interval"); v > 0 {
		cfg.TickInterval = v
	}
	if viper.IsSet("engine.default_max_retries") {
		cfg.DefaultMaxRetries = viper.GetInt("engine.default_max_retries")
	}

	return cfg
}

// LoadPlaidConfig loads Plaid credentials from Viper.
func LoadPlaidConfig() plaid.Config {
	return plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}
}

// LoadSimpleFINToken returns the SimpleFIN claim token, empty when the
// integration is not configured.
func LoadSimpleFINToken() string {
	return viper.GetString("simplefin.token")
}
