package model

import "time"

// ExecutionStatus tracks one execution attempt through its lifecycle.
type ExecutionStatus string

// Execution status constants.
const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionExecuting ExecutionStatus = "executing"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// ActionResult is what an action handler produced. Owned by the Execution
// record that captured it.
type ActionResult struct {
	Timestamp          time.Time  `json:"timestamp"`
	Type               ActionType `json:"type"`
	SourceAccount      string     `json:"source_account,omitempty"`
	DestinationAccount string     `json:"destination_account,omitempty"`
	Status             string     `json:"status"`
	Message            string     `json:"message,omitempty"`
	Reference          string     `json:"reference,omitempty"`
	Amount             float64    `json:"amount"`
}

// Execution is the audit record for one attempt to run a rule's action.
// Immutable once finalized to completed or failed.
type Execution struct {
	ExecutionTime  time.Time       `json:"execution_time"`
	TriggerData    map[string]any  `json:"trigger_data,omitempty"`
	ActionResult   *ActionResult   `json:"action_result,omitempty"`
	ID             string          `json:"id"`
	RuleID         string          `json:"rule_id"`
	RuleName       string          `json:"rule_name"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Status         ExecutionStatus `json:"status"`
	ProcessingTime time.Duration   `json:"processing_time"`
}
