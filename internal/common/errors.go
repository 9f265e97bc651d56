// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Store errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError indicates a malformed rule definition or a reference to
// a rule that does not exist. Never retried.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err as a ValidationError.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

// ActionExecutionError indicates the action handler or the money-movement
// collaborator failed. Recovered via the retry/backoff state machine.
type ActionExecutionError struct {
	Err    error
	Action string
}

func (e *ActionExecutionError) Error() string {
	return fmt.Sprintf("action %s failed: %v", e.Action, e.Err)
}

func (e *ActionExecutionError) Unwrap() error { return e.Err }

// UnsupportedActionError indicates an unknown or unconfigured action type.
// A configuration bug, not a transient fault: fails the attempt without
// consuming a retry.
type UnsupportedActionError struct {
	Type string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported action type: %s", e.Type)
}

// UnsupportedTriggerError indicates an unknown trigger type.
type UnsupportedTriggerError struct {
	Type string
}

func (e *UnsupportedTriggerError) Error() string {
	return fmt.Sprintf("unsupported trigger type: %s", e.Type)
}

// BalanceUnavailableError indicates the account-balance lookup failed
// during amount resolution. Treated as an ActionExecutionError for retry
// purposes.
type BalanceUnavailableError struct {
	Err       error
	AccountID string
}

func (e *BalanceUnavailableError) Error() string {
	return fmt.Sprintf("balance unavailable for account %s: %v", e.AccountID, e.Err)
}

func (e *BalanceUnavailableError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is a configuration bug that
// should fail an execution attempt without consuming a retry.
func IsConfigurationError(err error) bool {
	var actionErr *UnsupportedActionError
	var triggerErr *UnsupportedTriggerError
	var validationErr *ValidationError
	return errors.As(err, &actionErr) || errors.As(err, &triggerErr) || errors.As(err, &validationErr)
}
