package model

import "time"

// EventType marks money direction on a financial event.
type EventType string

// Event type constants.
const (
	EventCredit EventType = "credit"
	EventDebit  EventType = "debit"
)

// Event is an inbound financial event from the transaction-ingestion
// collaborator: one transaction observed on a linked account.
type Event struct {
	Date        time.Time      `json:"date"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Bank        string         `json:"bank"`
	AccountID   string         `json:"account_id"`
	Amount      float64        `json:"amount"`
}

// MerchantName returns the merchant recorded in event metadata, falling
// back to the description when the feed supplied none.
func (e Event) MerchantName() string {
	if v, ok := e.Metadata["merchantName"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return e.Description
}
