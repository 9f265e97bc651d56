// Package plaid provides a Plaid-backed account-balance provider.
package plaid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/osaze/moneyflow/internal/common"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token", common.ErrMissingConfig)
	}
	switch c.Environment {
	case "sandbox", "production":
		return nil
	}
	return fmt.Errorf("%w: plaid environment must be sandbox or production", common.ErrInvalidConfig)
}

// Client implements the service.BalanceProvider contract against the
// Plaid accounts API.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	accessToken string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
	}, nil
}

// GetBalance returns the current balance of one linked account. The
// engine treats any failure here as a hard amount-resolution error.
func (c *Client) GetBalance(ctx context.Context, accountID string) (float64, error) {
	if accountID == "" {
		return 0, fmt.Errorf("account ID cannot be empty")
	}

	request := plaid.NewAccountsBalanceGetRequest(c.accessToken)
	resp, _, err := c.client.PlaidApi.AccountsBalanceGet(ctx).AccountsBalanceGetRequest(*request).Execute()
	if err != nil {
		if plaidError := extractPlaidError(err); plaidError != nil {
			return 0, fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage)
		}
		return 0, fmt.Errorf("failed to fetch balances: %w", err)
	}

	for _, account := range resp.GetAccounts() {
		if account.GetAccountId() != accountID {
			continue
		}
		balances := account.GetBalances()
		if current, ok := balances.GetCurrentOk(); ok && current != nil {
			c.logger.Debug("Fetched balance", "account_id", accountID, "balance", *current)
			return *current, nil
		}
		return 0, fmt.Errorf("account %s has no current balance", accountID)
	}

	return 0, fmt.Errorf("account %s not found", accountID)
}

// GetAccounts returns the ids of all linked accounts.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	request := plaid.NewAccountsGetRequest(c.accessToken)
	resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		if plaidError := extractPlaidError(err); plaidError != nil {
			return nil, fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage)
		}
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	accounts := resp.GetAccounts()
	accountIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.GetAccountId())
	}
	return accountIDs, nil
}

// extractPlaidError pulls the structured Plaid error out of an API error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}
