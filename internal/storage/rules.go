package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/service"
)

// SaveRule inserts or updates a rule. The seq column fixes insertion
// order for priority tie-breaking and survives updates.
func (s *SQLiteStore) SaveRule(ctx context.Context, rule *model.Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	triggerJSON, err := json.Marshal(rule.Trigger)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger: %w", err)
	}
	actionJSON, err := json.Marshal(rule.Action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (
			id, seq, name, description, created_by, category, priority, is_active,
			trigger_json, action_json, status, last_executed, next_execution,
			execution_count, max_executions, retry_count, max_retries,
			created_at, updated_at
		) VALUES (?, COALESCE((SELECT MAX(seq) FROM rules), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			created_by = excluded.created_by,
			category = excluded.category,
			priority = excluded.priority,
			is_active = excluded.is_active,
			trigger_json = excluded.trigger_json,
			action_json = excluded.action_json,
			status = excluded.status,
			last_executed = excluded.last_executed,
			next_execution = excluded.next_execution,
			execution_count = excluded.execution_count,
			max_executions = excluded.max_executions,
			retry_count = excluded.retry_count,
			max_retries = excluded.max_retries,
			updated_at = excluded.updated_at`,
		rule.ID, rule.Name, rule.Description, rule.CreatedBy, string(rule.Category),
		rule.Priority, rule.IsActive, string(triggerJSON), string(actionJSON),
		string(rule.Execution.Status), nullTime(rule.Execution.LastExecuted),
		nullTime(rule.Execution.NextExecution), rule.Execution.ExecutionCount,
		nullInt(rule.Execution.MaxExecutions), rule.Execution.RetryCount,
		rule.Execution.MaxRetries, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

// GetRule fetches a rule by id.
func (s *SQLiteStore) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, ruleSelect+" WHERE id = ?", id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// GetRules lists rules matching the filter, sorted ascending by priority
// with insertion-order ties.
func (s *SQLiteStore) GetRules(ctx context.Context, filter service.RuleFilter) ([]model.Rule, error) {
	query := ruleSelect
	var clauses []string
	var args []any

	if filter.Category != nil {
		clauses = append(clauses, "category = ?")
		args = append(args, string(*filter.Category))
	}
	if filter.IsActive != nil {
		clauses = append(clauses, "is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY priority ASC, seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		result = append(result, *rule)
	}
	return result, rows.Err()
}

// DeleteRule removes a rule. Execution history is retained for audit.
func (s *SQLiteStore) DeleteRule(ctx context.Context, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

const ruleSelect = `
	SELECT id, name, description, created_by, category, priority, is_active,
	       trigger_json, action_json, status, last_executed, next_execution,
	       execution_count, max_executions, retry_count, max_retries,
	       created_at, updated_at
	FROM rules`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var rule model.Rule
	var category, status, triggerJSON, actionJSON string
	var description, createdBy sql.NullString
	var lastExecuted, nextExecution sql.NullTime
	var maxExecutions sql.NullInt64

	err := row.Scan(
		&rule.ID, &rule.Name, &description, &createdBy, &category,
		&rule.Priority, &rule.IsActive, &triggerJSON, &actionJSON,
		&status, &lastExecuted, &nextExecution,
		&rule.Execution.ExecutionCount, &maxExecutions,
		&rule.Execution.RetryCount, &rule.Execution.MaxRetries,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Description = description.String
	rule.CreatedBy = createdBy.String
	rule.Category = model.RuleCategory(category)
	rule.Execution.Status = model.RuleStatus(status)

	if err := json.Unmarshal([]byte(triggerJSON), &rule.Trigger); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger: %w", err)
	}
	if err := json.Unmarshal([]byte(actionJSON), &rule.Action); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action: %w", err)
	}

	if lastExecuted.Valid {
		t := lastExecuted.Time
		rule.Execution.LastExecuted = &t
	}
	if nextExecution.Valid {
		t := nextExecution.Time
		rule.Execution.NextExecution = &t
	}
	if maxExecutions.Valid {
		n := int(maxExecutions.Int64)
		rule.Execution.MaxExecutions = &n
	}
	return &rule, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
