// Package simplefin fetches account data from the SimpleFIN bridge so
// automation rules can run against live transactions without a Plaid
// integration.
package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
)

// Client talks to a claimed SimpleFIN access URL. It serves as both an
// event source and a balance provider.
type Client struct {
	accessURL  string
	httpClient *http.Client
}

// SimpleFIN API response types
type accountSet struct {
	Accounts []account `json:"accounts"`
}

type account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Balance      string        `json:"balance"`
	Transactions []transaction `json:"transactions"`
}

type transaction struct {
	ID          string `json:"id"`
	Posted      int64  `json:"posted"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Pending     bool   `json:"pending"`
}

// NewClient creates a SimpleFIN client, using saved auth if available.
func NewClient(token string) (*Client, error) {
	auth, err := LoadOrClaimAuth(token)
	if err != nil {
		return nil, fmt.Errorf("failed to load/claim auth: %w", err)
	}

	return &Client{
		accessURL: auth.AccessURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// claimToken exchanges a claim token for an access URL.
func claimToken(token string) (string, error) {
	// SimpleFIN tokens are base64-encoded claim URLs
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		decodedBytes, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return "", fmt.Errorf("failed to decode SimpleFIN token: %w", err)
		}
	}

	claimURL := string(decodedBytes)
	if !strings.HasPrefix(claimURL, "http://") && !strings.HasPrefix(claimURL, "https://") {
		return "", fmt.Errorf("decoded token is not a valid URL: %s", claimURL)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequest("POST", claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to claim access URL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to claim SimpleFIN access: %d - %s", resp.StatusCode, string(body))
	}

	accessURLBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read access URL: %w", err)
	}

	accessURL := strings.TrimSpace(string(accessURLBytes))
	if !strings.HasPrefix(accessURL, "http://") && !strings.HasPrefix(accessURL, "https://") {
		return "", fmt.Errorf("invalid access URL received: %s", accessURL)
	}
	return accessURL, nil
}

// FetchEvents fetches posted transactions in the date range and converts
// them into engine events, oldest data as delivered by the bridge.
// Pending transactions are skipped.
func (c *Client) FetchEvents(ctx context.Context, startDate, endDate time.Time) ([]model.Event, error) {
	set, err := c.fetchAccounts(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	for _, acct := range set.Accounts {
		for _, tx := range acct.Transactions {
			if tx.Pending {
				continue
			}

			date := time.Unix(tx.Posted, 0)
			if date.Before(startDate) || date.After(endDate) {
				continue
			}

			amount, err := parseAmount(tx.Amount)
			if err != nil {
				return nil, fmt.Errorf("failed to parse amount %s: %w", tx.Amount, err)
			}

			eventType := model.EventDebit
			if !strings.HasPrefix(strings.TrimSpace(tx.Amount), "-") {
				eventType = model.EventCredit
			}

			event := model.Event{
				ID:          fmt.Sprintf("%s_%s", acct.ID, tx.ID),
				Date:        date,
				Description: tx.Description,
				Amount:      amount,
				Type:        eventType,
				AccountID:   acct.ID,
			}
			if merchant := normalizeMerchant(tx.Payee); merchant != "" {
				event.Metadata = map[string]any{"merchantName": merchant}
			}
			events = append(events, event)
		}
	}

	slog.Debug("Fetched SimpleFIN events",
		"accounts", len(set.Accounts),
		"events", len(events))
	return events, nil
}

// GetBalance returns the current balance of one account. Satisfies the
// engine's balance-provider collaborator.
func (c *Client) GetBalance(ctx context.Context, accountID string) (float64, error) {
	// Balance-only query: a zero-length transaction window.
	now := time.Now()
	set, err := c.fetchAccounts(ctx, now, now)
	if err != nil {
		return 0, err
	}

	for _, acct := range set.Accounts {
		if acct.ID != accountID {
			continue
		}
		balance, err := strconv.ParseFloat(strings.TrimSpace(acct.Balance), 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse balance %q: %w", acct.Balance, err)
		}
		return balance, nil
	}
	return 0, fmt.Errorf("account %s: %w", accountID, common.ErrNotFound)
}

// GetAccounts returns the list of account IDs.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	set, err := c.fetchAccounts(ctx, time.Now().AddDate(0, 0, -1), time.Now())
	if err != nil {
		return nil, err
	}

	var accountIDs []string
	for _, acct := range set.Accounts {
		accountIDs = append(accountIDs, acct.ID)
	}
	return accountIDs, nil
}

func (c *Client) fetchAccounts(ctx context.Context, startDate, endDate time.Time) (*accountSet, error) {
	u, err := url.Parse(c.accessURL + "/accounts")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("start-date", fmt.Sprintf("%d", startDate.Unix()))
	// end-date in SimpleFIN is exclusive, so add a day
	q.Set("end-date", fmt.Sprintf("%d", endDate.AddDate(0, 0, 1).Unix()))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("SimpleFIN API error: %d - %s", resp.StatusCode, string(body))
	}

	var set accountSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &set, nil
}

// parseAmount converts a SimpleFIN signed amount string into a positive
// magnitude; the sign becomes the event direction.
func parseAmount(amountStr string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
	if err != nil {
		return 0, err
	}
	if amount < 0 {
		amount = -amount
	}
	return amount, nil
}

// normalizeMerchant performs basic merchant name cleanup.
func normalizeMerchant(raw string) string {
	merchant := strings.TrimSpace(raw)
	merchant = strings.TrimSuffix(merchant, " LLC")
	merchant = strings.TrimSuffix(merchant, " INC")
	merchant = strings.TrimSuffix(merchant, " CORP")
	return merchant
}
