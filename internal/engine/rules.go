package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/service"
)

// RuleInput carries the caller-supplied fields for a new rule.
type RuleInput struct {
	MaxExecutions *int
	MaxRetries    *int
	Name          string
	Description   string
	CreatedBy     string
	Category      model.RuleCategory
	Trigger       model.Trigger
	Action        model.Action
	Priority      int
	IsActive      bool
}

// CreateRule validates and stores a new rule. The id is assigned here and
// the execution state initialized to pending with zero executions.
func (e *Engine) CreateRule(ctx context.Context, input RuleInput) (*model.Rule, error) {
	now := e.clock()
	rule := &model.Rule{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   input.CreatedBy,
		Category:    input.Category,
		Trigger:     input.Trigger,
		Action:      input.Action,
		Priority:    input.Priority,
		IsActive:    input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Execution: model.ExecutionState{
			Status:     model.RuleStatusPending,
			MaxRetries: e.config.DefaultMaxRetries,
		},
	}
	if input.MaxRetries != nil {
		rule.Execution.MaxRetries = *input.MaxRetries
	}
	if input.MaxExecutions != nil {
		rule.Execution.MaxExecutions = input.MaxExecutions
	}

	if err := rule.Validate(); err != nil {
		return nil, &common.ValidationError{Err: err}
	}

	if rule.IsActive {
		e.scheduleNext(rule, now)
	}

	if err := e.store.SaveRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	e.logger.Info("Rule created", "rule_id", rule.ID, "name", rule.Name, "trigger", rule.Trigger.Type)
	return rule, nil
}

// RuleUpdate carries a partial update; nil fields are left unchanged.
type RuleUpdate struct {
	Name          *string
	Description   *string
	Priority      *int
	IsActive      *bool
	Trigger       *model.Trigger
	Action        *model.Action
	MaxRetries    *int
	MaxExecutions *int
}

// UpdateRule applies a partial update to an existing rule. Changing the
// trigger or activation reschedules the rule; deactivating clears any
// pending schedule without altering the lifecycle status. Reactivating a
// failed rule resets it to pending with a fresh retry budget.
func (e *Engine) UpdateRule(ctx context.Context, id string, update RuleUpdate) (*model.Rule, error) {
	rule, err := e.store.GetRule(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, id)
	}

	if update.Name != nil {
		rule.Name = *update.Name
	}
	if update.Description != nil {
		rule.Description = *update.Description
	}
	if update.Priority != nil {
		rule.Priority = *update.Priority
	}
	if update.Trigger != nil {
		rule.Trigger = *update.Trigger
	}
	if update.Action != nil {
		rule.Action = *update.Action
	}
	if update.MaxRetries != nil {
		rule.Execution.MaxRetries = *update.MaxRetries
	}
	if update.MaxExecutions != nil {
		rule.Execution.MaxExecutions = update.MaxExecutions
	}
	if update.IsActive != nil {
		rule.IsActive = *update.IsActive
	}

	if err := rule.Validate(); err != nil {
		return nil, &common.ValidationError{Err: err}
	}

	now := e.clock()
	rule.UpdatedAt = now

	if update.Trigger != nil || update.IsActive != nil {
		rule.Execution.NextExecution = nil
		if rule.IsActive {
			// Reactivating a failed rule is the only way back into
			// evaluation; the retry budget starts over.
			if rule.Execution.Status == model.RuleStatusFailed {
				rule.Execution.Status = model.RuleStatusPending
				rule.Execution.RetryCount = 0
			}
			e.scheduleNext(rule, now)
		}
	}

	if err := e.store.SaveRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	e.logger.Info("Rule updated", "rule_id", rule.ID, "active", rule.IsActive)
	return rule, nil
}

// DeleteRule removes a rule and purges its pending schedule entry.
// An in-flight execution already dispatched still writes its record.
func (e *Engine) DeleteRule(ctx context.Context, id string) error {
	if err := e.store.DeleteRule(ctx, id); err != nil {
		return wrapNotFound(err, id)
	}
	e.logger.Info("Rule deleted", "rule_id", id)
	return nil
}

// GetRule fetches a single rule by id.
func (e *Engine) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	rule, err := e.store.GetRule(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, id)
	}
	return rule, nil
}

// GetRules lists rules matching the filter, sorted by priority.
func (e *Engine) GetRules(ctx context.Context, filter service.RuleFilter) ([]model.Rule, error) {
	return e.store.GetRules(ctx, filter)
}

// GetStats aggregates fleet-wide automation statistics.
func (e *Engine) GetStats(ctx context.Context) (*service.Stats, error) {
	return e.store.GetStats(ctx)
}

// GetExecutionHistory lists execution records, newest first, optionally
// filtered to one rule. A non-positive limit uses the store default.
func (e *Engine) GetExecutionHistory(ctx context.Context, ruleID string, limit int) ([]model.Execution, error) {
	return e.store.GetExecutions(ctx, service.ExecutionFilter{RuleID: ruleID, Limit: limit})
}

// SeedTemplates installs the predefined rule templates that are not
// already present, matched by name. Templates are created inactive.
func (e *Engine) SeedTemplates(ctx context.Context) (int, error) {
	existing, err := e.store.GetRules(ctx, service.RuleFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list rules: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, r := range existing {
		names[r.Name] = true
	}

	seeded := 0
	for _, tmpl := range model.Templates() {
		if names[tmpl.Name] {
			continue
		}
		_, err := e.CreateRule(ctx, RuleInput{
			Name:        tmpl.Name,
			Description: tmpl.Description,
			CreatedBy:   "system",
			Category:    tmpl.Category,
			Trigger:     tmpl.Trigger,
			Action:      tmpl.Action,
			Priority:    tmpl.Priority,
			IsActive:    false,
		})
		if err != nil {
			if errors.Is(err, common.ErrDuplicateEntry) {
				continue
			}
			return seeded, fmt.Errorf("failed to seed template %q: %w", tmpl.Name, err)
		}
		seeded++
	}
	return seeded, nil
}
