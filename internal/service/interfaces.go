// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/osaze/moneyflow/internal/model"
)

// RuleFilter defines filtering options for rule queries. Nil fields match
// all rules.
type RuleFilter struct {
	Category *model.RuleCategory
	IsActive *bool
	Status   *model.RuleStatus
}

// ExecutionFilter defines filtering options for execution-history queries.
type ExecutionFilter struct {
	RuleID string
	Limit  int
}

// RuleStore owns all Rule and Execution records. Implementations must
// return rules sorted ascending by priority with insertion-order ties.
type RuleStore interface {
	// Rule operations
	SaveRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id string) (*model.Rule, error)
	GetRules(ctx context.Context, filter RuleFilter) ([]model.Rule, error)
	DeleteRule(ctx context.Context, id string) error

	// Execution operations
	SaveExecution(ctx context.Context, execution *model.Execution) error
	GetExecution(ctx context.Context, id string) (*model.Execution, error)
	GetExecutions(ctx context.Context, filter ExecutionFilter) ([]model.Execution, error)

	// Statistics
	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}

// BalanceProvider is the account-data collaborator: synchronous balance
// lookup for percentage and remaining amount resolution.
type BalanceProvider interface {
	GetBalance(ctx context.Context, accountID string) (float64, error)
}

// TransferRequest describes one money movement handed to the banking
// collaborator.
type TransferRequest struct {
	Type               model.ActionType
	SourceAccountID    string
	DestinationAccount string
	Description        string
	Currency           string
	Amount             float64
}

// TransferResult is the banking collaborator's acknowledgement.
type TransferResult struct {
	Reference string
	Success   bool
}

// MoneyMover is the banking collaborator performing the single point of
// irreversible side effect.
type MoneyMover interface {
	Perform(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// Notifier delivers notification actions to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// AmountCalculator is the pluggable strategy behind calculated amounts.
type AmountCalculator interface {
	Calculate(ctx context.Context, spec model.AmountSpec, event *model.Event) (float64, error)
}

// Stats aggregates fleet-wide automation statistics.
type Stats struct {
	TotalRules           int     `json:"total_rules"`
	ActiveRules          int     `json:"active_rules"`
	TotalExecutions      int     `json:"total_executions"`
	SuccessfulExecutions int     `json:"successful_executions"`
	FailedExecutions     int     `json:"failed_executions"`
	TotalAmountProcessed float64 `json:"total_amount_processed"`
	MonthlySavings       float64 `json:"monthly_savings"`
	Efficiency           float64 `json:"efficiency"`
}
