package simplefin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
)

const sampleAccountsJSON = `{
	"accounts": [
		{
			"id": "acct-main",
			"name": "Main Checking",
			"currency": "NGN",
			"balance": "1000000.00",
			"transactions": [
				{
					"id": "tx-1",
					"posted": 1711357200,
					"amount": "450000.00",
					"description": "ACME CORP PAYROLL",
					"payee": "ACME CORP",
					"pending": false
				},
				{
					"id": "tx-2",
					"posted": 1711443600,
					"amount": "-25500.00",
					"description": "POS PURCHASE",
					"payee": "SHOPRITE LLC",
					"pending": false
				},
				{
					"id": "tx-3",
					"posted": 1711443700,
					"amount": "-999.00",
					"description": "pending card hold",
					"payee": "",
					"pending": true
				}
			]
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Client{accessURL: server.URL, httpClient: server.Client()}
}

func TestFetchEvents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("start-date"))
		_, _ = w.Write([]byte(sampleAccountsJSON))
	})

	start := time.Unix(1711300000, 0)
	end := time.Unix(1711500000, 0)
	events, err := client.FetchEvents(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, events, 2, "pending transactions are skipped")

	salary := events[0]
	assert.Equal(t, "acct-main_tx-1", salary.ID)
	assert.Equal(t, model.EventCredit, salary.Type)
	assert.InDelta(t, 450000, salary.Amount, 0.001)
	assert.Equal(t, "ACME CORP PAYROLL", salary.Description)
	assert.Equal(t, "acct-main", salary.AccountID)
	assert.Equal(t, "ACME CORP", salary.MerchantName())

	purchase := events[1]
	assert.Equal(t, model.EventDebit, purchase.Type)
	assert.InDelta(t, 25500, purchase.Amount, 0.001, "debit amounts are kept positive")
	assert.Equal(t, "SHOPRITE", purchase.MerchantName(), "corporate suffix is stripped")
}

func TestFetchEventsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "access revoked", http.StatusForbidden)
	})

	_, err := client.FetchEvents(context.Background(), time.Now().AddDate(0, 0, -1), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGetBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleAccountsJSON))
	})

	balance, err := client.GetBalance(context.Background(), "acct-main")
	require.NoError(t, err)
	assert.InDelta(t, 1000000, balance, 0.001)

	_, err = client.GetBalance(context.Background(), "acct-unknown")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetAccounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleAccountsJSON))
	})

	accounts, err := client.GetAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acct-main"}, accounts)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"450000.00", 450000, false},
		{"-25500.00", 25500, false},
		{" 100.5 ", 100.5, false},
		{"not-a-number", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}
