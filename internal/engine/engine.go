// Package engine implements the execution coordinator: it evaluates rules
// against incoming events and clock ticks, runs matched actions, records
// executions, and drives the retry/backoff state machine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/osaze/moneyflow/internal/action"
	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/rules"
	"github.com/osaze/moneyflow/internal/service"
)

// Config holds configuration options for the engine.
type Config struct {
	// DefaultMaxRetries applies to rules created without an explicit
	// retry budget.
	DefaultMaxRetries int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{DefaultMaxRetries: 3}
}

// Engine coordinates rule evaluation and action execution. All mutation
// of the rule store happens inside its single active cycle.
type Engine struct {
	store      service.RuleStore
	classifier *rules.Classifier
	executor   *action.Executor
	clock      func() time.Time
	logger     *slog.Logger
	config     Config

	// processing is the process-wide re-entrancy guard: at most one
	// evaluation cycle runs at a time.
	processing atomic.Bool
}

// New creates an engine with the given collaborators and default config.
func New(store service.RuleStore, classifier *rules.Classifier, executor *action.Executor) *Engine {
	return NewWithConfig(store, classifier, executor, DefaultConfig(), time.Now)
}

// NewWithConfig creates an engine with explicit configuration and clock.
func NewWithConfig(store service.RuleStore, classifier *rules.Classifier, executor *action.Executor, config Config, clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		store:      store,
		classifier: classifier,
		executor:   executor,
		clock:      clock,
		logger:     slog.Default().With("component", "engine"),
		config:     config,
	}
}

// ProcessEvent runs one evaluation cycle driven by an inbound financial
// event. If a cycle is already in progress the event is dropped, not
// queued; the drop is logged so the loss is observable. Per-rule failures
// are isolated and never propagate.
func (e *Engine) ProcessEvent(ctx context.Context, event model.Event) error {
	if !e.processing.CompareAndSwap(false, true) {
		e.logger.Warn("Dropping event: cycle already in progress", "event_id", event.ID)
		return nil
	}
	defer e.processing.Store(false)

	candidates, err := e.eventCandidates(ctx)
	if err != nil {
		return fmt.Errorf("failed to select candidate rules: %w", err)
	}

	ledger := action.NewCycleLedger()
	for i := range candidates {
		rule := &candidates[i]

		fire, err := e.classifier.ShouldFire(rule, &event)
		if err != nil {
			e.recordMisconfiguration(ctx, rule, err)
			continue
		}
		if !fire {
			continue
		}

		e.executeRule(ctx, rule, &event, ledger, map[string]any{
			"event_id": event.ID,
			"trigger":  string(rule.Trigger.Type),
		})
	}

	return nil
}

// ProcessScheduledRules runs one evaluation cycle driven by the clock:
// due retries, elapsed-time rules, and wall-clock schedules. Called
// periodically by the host's scheduler.
func (e *Engine) ProcessScheduledRules(ctx context.Context) error {
	if !e.processing.CompareAndSwap(false, true) {
		e.logger.Debug("Skipping scheduled cycle: cycle already in progress")
		return nil
	}
	defer e.processing.Store(false)

	active := true
	candidates, err := e.store.GetRules(ctx, service.RuleFilter{IsActive: &active})
	if err != nil {
		return fmt.Errorf("failed to select candidate rules: %w", err)
	}

	now := e.clock()
	ledger := action.NewCycleLedger()
	for i := range candidates {
		rule := &candidates[i]
		if rule.Execution.Status.Terminal() {
			continue
		}

		// A due retry re-runs the previous fire directly; the trigger
		// already matched when the attempt was first dispatched.
		if retryDue(rule, now) {
			e.executeRule(ctx, rule, nil, ledger, map[string]any{
				"trigger": string(rule.Trigger.Type),
				"retry":   rule.Execution.RetryCount,
			})
			continue
		}

		if rule.Trigger.Type != model.TriggerElapsedTime && rule.Trigger.Type != model.TriggerSchedule {
			continue
		}

		fire, err := e.classifier.ShouldFire(rule, nil)
		if err != nil {
			e.recordMisconfiguration(ctx, rule, err)
			continue
		}
		if !fire {
			continue
		}

		e.executeRule(ctx, rule, nil, ledger, map[string]any{
			"trigger": string(rule.Trigger.Type),
		})
	}

	return nil
}

// eventCandidates returns active rules whose triggers are evaluated
// against incoming events, sorted by priority.
func (e *Engine) eventCandidates(ctx context.Context) ([]model.Rule, error) {
	active := true
	all, err := e.store.GetRules(ctx, service.RuleFilter{IsActive: &active})
	if err != nil {
		return nil, err
	}

	candidates := make([]model.Rule, 0, len(all))
	for _, rule := range all {
		if rule.Execution.Status.Terminal() {
			continue
		}
		switch rule.Trigger.Type {
		case model.TriggerTransaction, model.TriggerIncomeDetection:
			candidates = append(candidates, rule)
		}
	}
	return candidates, nil
}

// retryDue reports whether the rule has a scheduled retry that has come due.
func retryDue(rule *model.Rule, now time.Time) bool {
	return rule.Execution.RetryCount > 0 &&
		rule.Execution.NextExecution != nil &&
		!now.Before(*rule.Execution.NextExecution)
}

// executeRule dispatches one action for one fired trigger, records the
// Execution, and advances the rule's scheduling state. Exactly one
// Execution record is written per fire.
func (e *Engine) executeRule(ctx context.Context, rule *model.Rule, event *model.Event, ledger *action.CycleLedger, triggerData map[string]any) {
	now := e.clock()
	exec := &model.Execution{
		ID:            uuid.NewString(),
		RuleID:        rule.ID,
		RuleName:      rule.Name,
		Status:        model.ExecutionExecuting,
		TriggerData:   triggerData,
		ExecutionTime: now,
	}
	if err := e.store.SaveExecution(ctx, exec); err != nil {
		e.logger.Error("Failed to record execution start", "rule_id", rule.ID, "error", err)
		return
	}

	start := e.clock()
	result, err := e.executor.Execute(ctx, rule.Action, event, ledger)
	exec.ProcessingTime = e.clock().Sub(start)

	if err != nil {
		exec.Status = model.ExecutionFailed
		exec.ErrorMessage = err.Error()
		e.handleFailure(ctx, rule, err)
	} else {
		exec.Status = model.ExecutionCompleted
		exec.ActionResult = result
		e.handleSuccess(ctx, rule)
	}

	if err := e.store.SaveExecution(ctx, exec); err != nil {
		e.logger.Error("Failed to record execution result", "rule_id", rule.ID, "error", err)
	}
}

// handleSuccess advances the rule after a completed execution: counters,
// retry reset, next run or completion.
func (e *Engine) handleSuccess(ctx context.Context, rule *model.Rule) {
	now := e.clock()
	rule.Execution.ExecutionCount++
	rule.Execution.LastExecuted = &now
	rule.Execution.RetryCount = 0
	rule.Execution.Status = model.RuleStatusActive
	rule.Execution.NextExecution = nil

	if max := rule.Execution.MaxExecutions; max != nil && rule.Execution.ExecutionCount >= *max {
		rule.Execution.Status = model.RuleStatusCompleted
	} else {
		e.scheduleNext(rule, now)
	}

	rule.UpdatedAt = now
	if err := e.store.SaveRule(ctx, rule); err != nil {
		e.logger.Error("Failed to update rule after execution", "rule_id", rule.ID, "error", err)
	}
}

// handleFailure applies the retry/backoff state machine. Configuration
// errors fail the attempt without consuming a retry.
func (e *Engine) handleFailure(ctx context.Context, rule *model.Rule, execErr error) {
	now := e.clock()
	rule.UpdatedAt = now

	switch {
	case common.IsConfigurationError(execErr):
		e.logger.Error("Rule misconfigured; attempt failed without retry",
			"rule_id", rule.ID, "error", execErr)

	case rule.Execution.RetryCount < rule.Execution.MaxRetries:
		rule.Execution.RetryCount++
		next := now.Add(backoff(rule.Execution.RetryCount))
		rule.Execution.NextExecution = &next
		e.logger.Warn("Execution failed, retry scheduled",
			"rule_id", rule.ID,
			"retry", rule.Execution.RetryCount,
			"max_retries", rule.Execution.MaxRetries,
			"next_execution", next,
			"error", execErr)

	default:
		rule.Execution.Status = model.RuleStatusFailed
		rule.Execution.NextExecution = nil
		e.logger.Error("Execution failed, retries exhausted",
			"rule_id", rule.ID,
			"max_retries", rule.Execution.MaxRetries,
			"error", execErr)
	}

	if err := e.store.SaveRule(ctx, rule); err != nil {
		e.logger.Error("Failed to update rule after failure", "rule_id", rule.ID, "error", err)
	}
}

// backoff returns the retry delay for attempt n: 2^n minutes.
func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Minute
}

// scheduleNext computes the next run for frequency-driven rules. Schedule
// triggers fire by wall-clock matching on each tick and transaction
// triggers by events, so neither carries a NextExecution.
func (e *Engine) scheduleNext(rule *model.Rule, now time.Time) {
	if !rule.IsActive || rule.Trigger.Type != model.TriggerElapsedTime {
		return
	}
	interval, ok := rule.Trigger.Frequency.Duration()
	if !ok {
		return
	}
	next := now.Add(interval)
	rule.Execution.NextExecution = &next
}

// recordMisconfiguration writes a failed Execution for a rule whose
// trigger could not be classified. The failure does not consume a retry.
func (e *Engine) recordMisconfiguration(ctx context.Context, rule *model.Rule, classifyErr error) {
	exec := &model.Execution{
		ID:            uuid.NewString(),
		RuleID:        rule.ID,
		RuleName:      rule.Name,
		Status:        model.ExecutionFailed,
		ErrorMessage:  classifyErr.Error(),
		ExecutionTime: e.clock(),
	}
	if err := e.store.SaveExecution(ctx, exec); err != nil {
		e.logger.Error("Failed to record misconfiguration", "rule_id", rule.ID, "error", err)
	}
	e.logger.Error("Trigger classification failed", "rule_id", rule.ID, "error", classifyErr)
}

// wrapNotFound maps store lookups onto the validation taxonomy.
func wrapNotFound(err error, id string) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewValidationError("rule %s does not exist", id)
	}
	return err
}
