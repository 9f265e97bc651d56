package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/service"
)

type stubBalances struct {
	balances map[string]float64
	err      error
}

func (s *stubBalances) GetBalance(_ context.Context, accountID string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.balances[accountID], nil
}

type recordingMover struct {
	requests []service.TransferRequest
	err      error
	reject   bool
}

func (m *recordingMover) Perform(_ context.Context, req service.TransferRequest) (*service.TransferResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &service.TransferResult{Reference: "ref-1", Success: !m.reject}, nil
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

type stubCalculator struct {
	amount float64
	err    error
}

func (c *stubCalculator) Calculate(_ context.Context, _ model.AmountSpec, _ *model.Event) (float64, error) {
	return c.amount, c.err
}

func float64Ptr(v float64) *float64 { return &v }

func TestExecuteMoneyMovement(t *testing.T) {
	now := time.Date(2024, 3, 25, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		action     model.Action
		balance    float64
		committed  float64
		wantAmount float64
	}{
		{
			name: "fixed amount passed through",
			action: model.Action{
				Type:                 model.ActionTransfer,
				SourceAccountID:      "acct-main",
				DestinationAccountID: "acct-bills",
				Amount:               model.AmountSpec{Type: model.AmountFixed, Value: 25000, Currency: "NGN"},
			},
			wantAmount: 25000,
		},
		{
			name: "percentage of current balance",
			action: model.Action{
				Type:                 model.ActionSavings,
				SourceAccountID:      "acct-main",
				DestinationAccountID: "acct-savings",
				Amount:               model.AmountSpec{Type: model.AmountPercentage, Value: 20, Currency: "NGN"},
			},
			balance:    1000000,
			wantAmount: 200000,
		},
		{
			name: "remaining subtracts cycle commitments",
			action: model.Action{
				Type:                 model.ActionSavings,
				SourceAccountID:      "acct-main",
				DestinationAccountID: "acct-savings",
				Amount:               model.AmountSpec{Type: model.AmountRemaining, Currency: "NGN"},
			},
			balance:    500000,
			committed:  350000,
			wantAmount: 150000,
		},
		{
			name: "remaining clamps at zero when overcommitted",
			action: model.Action{
				Type:                 model.ActionSavings,
				SourceAccountID:      "acct-main",
				DestinationAccountID: "acct-savings",
				Amount:               model.AmountSpec{Type: model.AmountRemaining, Currency: "NGN"},
			},
			balance:    100000,
			committed:  150000,
			wantAmount: 0,
		},
		{
			name: "min clamp raises small amounts",
			action: model.Action{
				Type:                 model.ActionInvestment,
				SourceAccountID:      "acct-main",
				DestinationAccountID: "acct-invest",
				Amount: model.AmountSpec{
					Type:      model.AmountPercentage,
					Value:     1,
					MinAmount: float64Ptr(50000),
					Currency:  "NGN",
				},
			},
			balance:    1000000,
			wantAmount: 50000,
		},
		{
			name: "max clamp caps large amounts",
			action: model.Action{
				Type:                 model.ActionSavings,
				SourceAccountID:      "acct-main",
				DestinationAccountID: "acct-savings",
				Amount: model.AmountSpec{
					Type:      model.AmountPercentage,
					Value:     50,
					MaxAmount: float64Ptr(100000),
					Currency:  "NGN",
				},
			},
			balance:    1000000,
			wantAmount: 100000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mover := &recordingMover{}
			balances := &stubBalances{balances: map[string]float64{"acct-main": tt.balance}}
			exec := NewExecutor(balances, mover, WithClock(func() time.Time { return now }))

			ledger := NewCycleLedger()
			if tt.committed > 0 {
				ledger.Commit("acct-main", tt.committed)
			}

			result, err := exec.Execute(context.Background(), tt.action, nil, ledger)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, tt.action.Type, result.Type)
			assert.InDelta(t, tt.wantAmount, result.Amount, 0.001)
			assert.Equal(t, "completed", result.Status)
			assert.Equal(t, "ref-1", result.Reference)
			assert.Equal(t, now, result.Timestamp)

			require.Len(t, mover.requests, 1)
			assert.InDelta(t, tt.wantAmount, mover.requests[0].Amount, 0.001)
			assert.Equal(t, "acct-main", mover.requests[0].SourceAccountID)
		})
	}
}

func TestExecuteCommitsToLedger(t *testing.T) {
	mover := &recordingMover{}
	balances := &stubBalances{balances: map[string]float64{"acct-main": 1000000}}
	exec := NewExecutor(balances, mover)
	ledger := NewCycleLedger()

	first := model.Action{
		Type:                 model.ActionSavings,
		SourceAccountID:      "acct-main",
		DestinationAccountID: "acct-savings",
		Amount:               model.AmountSpec{Type: model.AmountPercentage, Value: 20, Currency: "NGN"},
	}
	_, err := exec.Execute(context.Background(), first, nil, ledger)
	require.NoError(t, err)
	assert.InDelta(t, 200000, ledger.Committed("acct-main"), 0.001)

	// A later remaining-amount action in the same cycle sees the earlier
	// withdrawal even though the provider still reports the stale balance.
	second := model.Action{
		Type:                 model.ActionTransfer,
		SourceAccountID:      "acct-main",
		DestinationAccountID: "acct-bills",
		Amount:               model.AmountSpec{Type: model.AmountRemaining, Currency: "NGN"},
	}
	result, err := exec.Execute(context.Background(), second, nil, ledger)
	require.NoError(t, err)
	assert.InDelta(t, 800000, result.Amount, 0.001)
}

func TestExecuteCalculatedAmount(t *testing.T) {
	t.Run("delegates to calculator", func(t *testing.T) {
		mover := &recordingMover{}
		exec := NewExecutor(nil, mover, WithCalculator(&stubCalculator{amount: 1234.5}))

		action := model.Action{
			Type:                 model.ActionSavings,
			SourceAccountID:      "acct-main",
			DestinationAccountID: "acct-savings",
			Amount:               model.AmountSpec{Type: model.AmountCalculated, Currency: "NGN"},
		}
		result, err := exec.Execute(context.Background(), action, nil, nil)
		require.NoError(t, err)
		assert.InDelta(t, 1234.5, result.Amount, 0.001)
	})

	t.Run("fails without a calculator", func(t *testing.T) {
		mover := &recordingMover{}
		exec := NewExecutor(nil, mover)

		action := model.Action{
			Type:                 model.ActionSavings,
			SourceAccountID:      "acct-main",
			DestinationAccountID: "acct-savings",
			Amount:               model.AmountSpec{Type: model.AmountCalculated, Currency: "NGN"},
		}
		_, err := exec.Execute(context.Background(), action, nil, nil)

		var unsupported *common.UnsupportedActionError
		require.ErrorAs(t, err, &unsupported)
	})
}

func TestExecuteBalanceUnavailable(t *testing.T) {
	mover := &recordingMover{}
	balances := &stubBalances{err: errors.New("provider timeout")}
	exec := NewExecutor(balances, mover)

	action := model.Action{
		Type:                 model.ActionSavings,
		SourceAccountID:      "acct-main",
		DestinationAccountID: "acct-savings",
		Amount:               model.AmountSpec{Type: model.AmountPercentage, Value: 20, Currency: "NGN"},
	}
	_, err := exec.Execute(context.Background(), action, nil, nil)

	var unavailable *common.BalanceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "acct-main", unavailable.AccountID)
	assert.Empty(t, mover.requests, "no transfer is attempted without a balance")
}

func TestExecuteMoverFailure(t *testing.T) {
	t.Run("transport error wraps", func(t *testing.T) {
		mover := &recordingMover{err: errors.New("connection reset")}
		exec := NewExecutor(nil, mover)

		action := model.Action{
			Type:                 model.ActionTransfer,
			SourceAccountID:      "acct-main",
			DestinationAccountID: "acct-bills",
			Amount:               model.AmountSpec{Type: model.AmountFixed, Value: 5000, Currency: "NGN"},
		}
		_, err := exec.Execute(context.Background(), action, nil, nil)

		var execErr *common.ActionExecutionError
		require.ErrorAs(t, err, &execErr)
	})

	t.Run("rejected transfer is an error", func(t *testing.T) {
		mover := &recordingMover{reject: true}
		exec := NewExecutor(nil, mover)

		action := model.Action{
			Type:                 model.ActionTransfer,
			SourceAccountID:      "acct-main",
			DestinationAccountID: "acct-bills",
			Amount:               model.AmountSpec{Type: model.AmountFixed, Value: 5000, Currency: "NGN"},
		}
		_, err := exec.Execute(context.Background(), action, nil, nil)

		var execErr *common.ActionExecutionError
		require.ErrorAs(t, err, &execErr)
	})
}

func TestExecuteNotification(t *testing.T) {
	t.Run("delivers and reports sent", func(t *testing.T) {
		notifier := &recordingNotifier{}
		exec := NewExecutor(nil, nil, WithNotifier(notifier))

		action := model.Action{
			Type:        model.ActionNotification,
			Description: "Utility bill due tomorrow",
		}
		result, err := exec.Execute(context.Background(), action, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, "sent", result.Status)
		assert.Equal(t, "Utility bill due tomorrow", result.Message)
		assert.Equal(t, []string{"Utility bill due tomorrow"}, notifier.messages)
	})

	t.Run("succeeds without a notifier", func(t *testing.T) {
		exec := NewExecutor(nil, nil)

		action := model.Action{
			Type:        model.ActionNotification,
			Description: "heads up",
		}
		result, err := exec.Execute(context.Background(), action, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "sent", result.Status)
	})

	t.Run("delivery failure wraps", func(t *testing.T) {
		notifier := &recordingNotifier{err: errors.New("channel closed")}
		exec := NewExecutor(nil, nil, WithNotifier(notifier))

		action := model.Action{
			Type:        model.ActionNotification,
			Description: "heads up",
		}
		_, err := exec.Execute(context.Background(), action, nil, nil)

		var execErr *common.ActionExecutionError
		require.ErrorAs(t, err, &execErr)
	})
}

func TestExecuteUnsupportedAction(t *testing.T) {
	exec := NewExecutor(nil, nil)

	action := model.Action{Type: "teleport"}
	_, err := exec.Execute(context.Background(), action, nil, nil)

	var unsupported *common.UnsupportedActionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "teleport", unsupported.Type)
}
