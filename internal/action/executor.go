// Package action dispatches matched rules' actions to their handlers and
// resolves the monetary amounts they move.
package action

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/service"
)

// Executor runs a rule's action against the injected collaborators.
type Executor struct {
	balances   service.BalanceProvider
	mover      service.MoneyMover
	notifier   service.Notifier
	calculator service.AmountCalculator
	logger     *slog.Logger
	clock      func() time.Time
}

// NewExecutor creates an action executor. The mover and balances
// collaborators are required for money-moving actions; notifier and
// calculator are optional.
func NewExecutor(balances service.BalanceProvider, mover service.MoneyMover, opts ...Option) *Executor {
	e := &Executor{
		balances: balances,
		mover:    mover,
		logger:   slog.Default().With("component", "action"),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option configures optional executor collaborators.
type Option func(*Executor)

// WithNotifier sets the notification collaborator.
func WithNotifier(n service.Notifier) Option {
	return func(e *Executor) { e.notifier = n }
}

// WithCalculator sets the strategy behind calculated amounts.
func WithCalculator(c service.AmountCalculator) Option {
	return func(e *Executor) { e.calculator = c }
}

// WithClock overrides the executor clock.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) { e.clock = clock }
}

// Execute dispatches the action to its handler and returns the result.
// The ledger accumulates committed withdrawals for remaining-amount
// resolution within the current cycle.
func (e *Executor) Execute(ctx context.Context, act model.Action, event *model.Event, ledger *CycleLedger) (*model.ActionResult, error) {
	switch act.Type {
	case model.ActionTransfer, model.ActionSavings, model.ActionInvestment, model.ActionBillPayment:
		return e.executeMoneyMovement(ctx, act, event, ledger)
	case model.ActionNotification:
		return e.executeNotification(ctx, act)
	}
	return nil, &common.UnsupportedActionError{Type: string(act.Type)}
}

func (e *Executor) executeMoneyMovement(ctx context.Context, act model.Action, event *model.Event, ledger *CycleLedger) (*model.ActionResult, error) {
	amount, err := e.resolveAmount(ctx, act, event, ledger)
	if err != nil {
		return nil, err
	}

	if e.mover == nil {
		return nil, &common.ActionExecutionError{
			Action: string(act.Type),
			Err:    fmt.Errorf("no money-movement collaborator configured"),
		}
	}

	result, err := e.mover.Perform(ctx, service.TransferRequest{
		Type:               act.Type,
		SourceAccountID:    act.SourceAccountID,
		DestinationAccount: act.DestinationAccountID,
		Description:        act.Description,
		Currency:           act.Amount.Currency,
		Amount:             amount,
	})
	if err != nil {
		return nil, &common.ActionExecutionError{Action: string(act.Type), Err: err}
	}
	if !result.Success {
		return nil, &common.ActionExecutionError{
			Action: string(act.Type),
			Err:    fmt.Errorf("money mover rejected transfer %s", result.Reference),
		}
	}

	if ledger != nil {
		ledger.Commit(act.SourceAccountID, amount)
	}

	e.logger.Info("Action executed",
		"type", act.Type,
		"amount", amount,
		"source", act.SourceAccountID,
		"destination", act.DestinationAccountID,
		"reference", result.Reference)

	return &model.ActionResult{
		Type:               act.Type,
		Amount:             amount,
		SourceAccount:      act.SourceAccountID,
		DestinationAccount: act.DestinationAccountID,
		Status:             "completed",
		Reference:          result.Reference,
		Timestamp:          e.clock(),
	}, nil
}

func (e *Executor) executeNotification(ctx context.Context, act model.Action) (*model.ActionResult, error) {
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, act.Description); err != nil {
			return nil, &common.ActionExecutionError{Action: string(act.Type), Err: err}
		}
	}

	return &model.ActionResult{
		Type:      model.ActionNotification,
		Message:   act.Description,
		Status:    "sent",
		Timestamp: e.clock(),
	}, nil
}

// resolveAmount computes the money an action moves according to its
// AmountSpec, applying min/max clamping after resolution.
func (e *Executor) resolveAmount(ctx context.Context, act model.Action, event *model.Event, ledger *CycleLedger) (float64, error) {
	spec := act.Amount

	var amount float64
	switch spec.Type {
	case model.AmountFixed:
		amount = spec.Value

	case model.AmountPercentage:
		balance, err := e.fetchBalance(ctx, act.SourceAccountID)
		if err != nil {
			return 0, err
		}
		amount = balance * spec.Value / 100

	case model.AmountRemaining:
		balance, err := e.fetchBalance(ctx, act.SourceAccountID)
		if err != nil {
			return 0, err
		}
		amount = balance
		if ledger != nil {
			amount -= ledger.Committed(act.SourceAccountID)
		}
		if amount < 0 {
			amount = 0
		}

	case model.AmountCalculated:
		if e.calculator == nil {
			return 0, &common.UnsupportedActionError{Type: "calculated amount (no calculator configured)"}
		}
		v, err := e.calculator.Calculate(ctx, spec, event)
		if err != nil {
			return 0, &common.ActionExecutionError{Action: string(act.Type), Err: err}
		}
		amount = v

	default:
		return 0, &common.UnsupportedActionError{Type: string(spec.Type)}
	}

	if spec.MinAmount != nil && amount < *spec.MinAmount {
		amount = *spec.MinAmount
	}
	if spec.MaxAmount != nil && amount > *spec.MaxAmount {
		amount = *spec.MaxAmount
	}
	return amount, nil
}

// fetchBalance asks the account-data collaborator for a balance. An
// unavailable balance is a hard failure, never a silent zero.
func (e *Executor) fetchBalance(ctx context.Context, accountID string) (float64, error) {
	if e.balances == nil {
		return 0, &common.BalanceUnavailableError{
			AccountID: accountID,
			Err:       fmt.Errorf("no balance provider configured"),
		}
	}
	balance, err := e.balances.GetBalance(ctx, accountID)
	if err != nil {
		return 0, &common.BalanceUnavailableError{AccountID: accountID, Err: err}
	}
	return balance, nil
}
