// Package storage provides the rule and execution stores backing the engine.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/service"
)

// MemoryStore is the in-memory RuleStore: the system of record for the
// process lifetime when no durable backing store is configured.
type MemoryStore struct {
	rules      map[string]*model.Rule
	ruleSeq    map[string]int
	executions map[string]*model.Execution
	execSeq    map[string]int
	clock      func() time.Time
	nextSeq    int
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store. A nil clock defaults
// to time.Now; tests inject a fixed clock for the trailing-window stats.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		rules:      make(map[string]*model.Rule),
		ruleSeq:    make(map[string]int),
		executions: make(map[string]*model.Execution),
		execSeq:    make(map[string]int),
		clock:      clock,
	}
}

// SaveRule inserts or updates a rule. Insertion order is remembered for
// priority tie-breaking.
func (s *MemoryStore) SaveRule(_ context.Context, rule *model.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ruleSeq[rule.ID]; !ok {
		s.nextSeq++
		s.ruleSeq[rule.ID] = s.nextSeq
	}
	clone := *rule
	s.rules[rule.ID] = &clone
	return nil
}

// GetRule fetches a rule by id.
func (s *MemoryStore) GetRule(_ context.Context, id string) (*model.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *rule
	return &clone, nil
}

// GetRules lists rules matching the filter, sorted ascending by priority
// with ties preserving insertion order.
func (s *MemoryStore) GetRules(_ context.Context, filter service.RuleFilter) ([]model.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		if filter.Category != nil && rule.Category != *filter.Category {
			continue
		}
		if filter.IsActive != nil && rule.IsActive != *filter.IsActive {
			continue
		}
		if filter.Status != nil && rule.Execution.Status != *filter.Status {
			continue
		}
		matched = append(matched, *rule)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority < matched[j].Priority
		}
		return s.ruleSeq[matched[i].ID] < s.ruleSeq[matched[j].ID]
	})
	return matched, nil
}

// DeleteRule removes a rule. Its execution history is retained for audit.
func (s *MemoryStore) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.rules, id)
	delete(s.ruleSeq, id)
	return nil
}

// SaveExecution inserts or updates an execution record.
func (s *MemoryStore) SaveExecution(_ context.Context, execution *model.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.execSeq[execution.ID]; !ok {
		s.nextSeq++
		s.execSeq[execution.ID] = s.nextSeq
	}
	clone := *execution
	s.executions[execution.ID] = &clone
	return nil
}

// GetExecution fetches an execution record by id.
func (s *MemoryStore) GetExecution(_ context.Context, id string) (*model.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *exec
	return &clone, nil
}

// defaultHistoryLimit bounds execution-history queries when the caller
// does not supply a limit.
const defaultHistoryLimit = 50

// GetExecutions lists execution records newest-first, optionally filtered
// to one rule, bounded by the filter limit.
func (s *MemoryStore) GetExecutions(_ context.Context, filter service.ExecutionFilter) ([]model.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.Execution, 0, len(s.executions))
	for _, exec := range s.executions {
		if filter.RuleID != "" && exec.RuleID != filter.RuleID {
			continue
		}
		matched = append(matched, *exec)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].ExecutionTime.Equal(matched[j].ExecutionTime) {
			return matched[i].ExecutionTime.After(matched[j].ExecutionTime)
		}
		return s.execSeq[matched[i].ID] > s.execSeq[matched[j].ID]
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// GetStats aggregates statistics across all rules and executions.
func (s *MemoryStore) GetStats(_ context.Context) (*service.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &service.Stats{TotalRules: len(s.rules)}
	for _, rule := range s.rules {
		if rule.IsActive {
			stats.ActiveRules++
		}
	}

	monthAgo := s.clock().Add(-30 * 24 * time.Hour)
	for _, exec := range s.executions {
		stats.TotalExecutions++
		switch exec.Status {
		case model.ExecutionCompleted:
			stats.SuccessfulExecutions++
			if exec.ActionResult != nil {
				stats.TotalAmountProcessed += exec.ActionResult.Amount
				if exec.ActionResult.Type == model.ActionSavings && !exec.ExecutionTime.Before(monthAgo) {
					stats.MonthlySavings += exec.ActionResult.Amount
				}
			}
		case model.ExecutionFailed:
			stats.FailedExecutions++
		}
	}

	if stats.TotalExecutions > 0 {
		stats.Efficiency = float64(stats.SuccessfulExecutions) / float64(stats.TotalExecutions) * 100
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
