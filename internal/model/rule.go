// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"
)

// RuleCategory groups rules by financial intent.
type RuleCategory string

// Rule category constants.
const (
	CategorySavings       RuleCategory = "savings"
	CategoryInvestment    RuleCategory = "investment"
	CategoryBillPayment   RuleCategory = "bill-payment"
	CategoryDebtRepayment RuleCategory = "debt-repayment"
	CategoryEmergencyFund RuleCategory = "emergency-fund"
	CategoryCustom        RuleCategory = "custom"
)

// TriggerType identifies which trigger family a rule uses.
type TriggerType string

// Trigger type constants.
const (
	TriggerTransaction     TriggerType = "transaction"
	TriggerElapsedTime     TriggerType = "time"
	TriggerSchedule        TriggerType = "schedule"
	TriggerBalance         TriggerType = "balance"
	TriggerIncomeDetection TriggerType = "income-detection"
)

// Frequency expresses how often an elapsed-time trigger fires.
type Frequency string

// Frequency constants.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Duration returns the fixed interval for a frequency. Monthly and yearly
// use fixed 30/365 day spans, not calendar months.
func (f Frequency) Duration() (time.Duration, bool) {
	const day = 24 * time.Hour
	switch f {
	case FrequencyDaily:
		return day, true
	case FrequencyWeekly:
		return 7 * day, true
	case FrequencyMonthly:
		return 30 * day, true
	case FrequencyYearly:
		return 365 * day, true
	}
	return 0, false
}

// Schedule pins a trigger to wall-clock coordinates. Nil fields match always.
type Schedule struct {
	DayOfWeek  *int   `json:"day_of_week,omitempty"`  // 0-6, Sunday first
	DayOfMonth *int   `json:"day_of_month,omitempty"` // 1-31
	Time       string `json:"time,omitempty"`         // HH:MM
	Timezone   string `json:"timezone,omitempty"`
}

// Trigger decides when a rule fires. Exactly one of Conditions, Frequency,
// or Schedule is populated depending on Type.
type Trigger struct {
	Type       TriggerType `json:"type"`
	Conditions []Condition `json:"conditions,omitempty"`
	Frequency  Frequency   `json:"frequency,omitempty"`
	Schedule   *Schedule   `json:"schedule,omitempty"`
}

// Validate checks that the trigger's payload matches its kind.
func (t Trigger) Validate() error {
	switch t.Type {
	case TriggerTransaction:
		if t.Frequency != "" || t.Schedule != nil {
			return fmt.Errorf("transaction trigger cannot carry frequency or schedule")
		}
	case TriggerElapsedTime:
		if _, ok := t.Frequency.Duration(); !ok {
			return fmt.Errorf("time trigger requires a valid frequency, got %q", t.Frequency)
		}
		if len(t.Conditions) > 0 {
			return fmt.Errorf("time trigger cannot carry conditions")
		}
	case TriggerSchedule:
		if t.Schedule == nil {
			return fmt.Errorf("schedule trigger requires a schedule")
		}
		if len(t.Conditions) > 0 {
			return fmt.Errorf("schedule trigger cannot carry conditions")
		}
	case TriggerBalance, TriggerIncomeDetection:
		if len(t.Conditions) > 0 || t.Frequency != "" || t.Schedule != nil {
			return fmt.Errorf("%s trigger carries no configuration", t.Type)
		}
	default:
		return fmt.Errorf("unknown trigger type %q", t.Type)
	}
	return nil
}

// RuleStatus tracks a rule's position in its execution lifecycle.
type RuleStatus string

// Rule status constants.
const (
	RuleStatusPending   RuleStatus = "pending"
	RuleStatusActive    RuleStatus = "active"
	RuleStatusPaused    RuleStatus = "paused"
	RuleStatusCompleted RuleStatus = "completed"
	RuleStatusFailed    RuleStatus = "failed"
	RuleStatusCancelled RuleStatus = "cancelled"
)

// Terminal reports whether a rule in this status is excluded from
// trigger evaluation. A failed rule stays excluded until an update
// explicitly reactivates it.
func (s RuleStatus) Terminal() bool {
	return s == RuleStatusCompleted || s == RuleStatusFailed || s == RuleStatusCancelled
}

// ExecutionState holds the mutable scheduling and retry bookkeeping
// embedded in a rule.
type ExecutionState struct {
	LastExecuted   *time.Time `json:"last_executed,omitempty"`
	NextExecution  *time.Time `json:"next_execution,omitempty"`
	ExecutionCount int        `json:"execution_count"`
	MaxExecutions  *int       `json:"max_executions,omitempty"`
	RetryCount     int        `json:"retry_count"`
	MaxRetries     int        `json:"max_retries"`
	Status         RuleStatus `json:"status"`
}

// Rule is a user-defined automation pairing one trigger with one action.
type Rule struct {
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CreatedBy   string         `json:"created_by"`
	Category    RuleCategory   `json:"category"`
	Trigger     Trigger        `json:"trigger"`
	Action      Action         `json:"action"`
	Execution   ExecutionState `json:"execution"`
	Priority    int            `json:"priority"`
	IsActive    bool           `json:"is_active"`
}

// Validate checks that a rule definition is structurally sound.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if err := r.Trigger.Validate(); err != nil {
		return fmt.Errorf("invalid trigger: %w", err)
	}
	if err := r.Action.Validate(); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}
	return nil
}
