package model

import "fmt"

// ActionType identifies the effect a rule performs when it fires.
type ActionType string

// Action type constants.
const (
	ActionTransfer     ActionType = "transfer"
	ActionSavings      ActionType = "savings"
	ActionInvestment   ActionType = "investment"
	ActionBillPayment  ActionType = "bill-payment"
	ActionNotification ActionType = "notification"
)

// AmountType chooses how an action's monetary amount is resolved.
type AmountType string

// Amount type constants.
const (
	AmountFixed      AmountType = "fixed"
	AmountPercentage AmountType = "percentage"
	AmountRemaining  AmountType = "remaining"
	AmountCalculated AmountType = "calculated"
)

// AmountSpec describes how to compute the money an action moves.
type AmountSpec struct {
	MinAmount *float64   `json:"min_amount,omitempty"`
	MaxAmount *float64   `json:"max_amount,omitempty"`
	Type      AmountType `json:"type"`
	Currency  string     `json:"currency"`
	Value     float64    `json:"value"`
}

// Action is the effect half of a rule.
type Action struct {
	Metadata             map[string]any `json:"metadata,omitempty"`
	Type                 ActionType     `json:"type"`
	SourceAccountID      string         `json:"source_account_id"`
	DestinationAccountID string         `json:"destination_account_id,omitempty"`
	Description          string         `json:"description"`
	Amount               AmountSpec     `json:"amount"`
}

// Validate checks that an action definition is structurally sound.
func (a Action) Validate() error {
	switch a.Type {
	case ActionTransfer, ActionSavings, ActionInvestment, ActionBillPayment:
		if a.SourceAccountID == "" {
			return fmt.Errorf("%s action requires a source account", a.Type)
		}
	case ActionNotification:
		// Notifications carry no money; only the description matters.
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	switch a.Amount.Type {
	case AmountFixed, AmountPercentage, AmountRemaining, AmountCalculated:
	default:
		if a.Type != ActionNotification {
			return fmt.Errorf("unknown amount type %q", a.Amount.Type)
		}
	}
	return nil
}
