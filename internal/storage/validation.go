package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/osaze/moneyflow/internal/model"
)

// Validation errors.
var (
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidRule      = errors.New("invalid rule")
	ErrInvalidExecution = errors.New("invalid execution")
)

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRule validates a rule before persisting.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if rule.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRule)
	}
	if rule.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	return nil
}

// validateExecution validates an execution record before persisting.
func validateExecution(execution *model.Execution) error {
	if execution == nil {
		return fmt.Errorf("%w: execution", ErrNilParameter)
	}
	if execution.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidExecution)
	}
	if execution.RuleID == "" {
		return fmt.Errorf("%w: missing rule ID", ErrInvalidExecution)
	}
	return nil
}
