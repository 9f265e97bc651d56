package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/service"
)

// SaveExecution inserts or updates an execution record. The same record
// is written once at dispatch and once when finalized.
func (s *SQLiteStore) SaveExecution(ctx context.Context, execution *model.Execution) error {
	if err := validateExecution(execution); err != nil {
		return err
	}

	triggerData, err := marshalNullable(execution.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}
	actionResult, err := marshalNullable(execution.ActionResult)
	if err != nil {
		return fmt.Errorf("failed to marshal action result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (
			id, rule_id, rule_name, status, trigger_data, action_result,
			error_message, execution_time, processing_time_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			trigger_data = excluded.trigger_data,
			action_result = excluded.action_result,
			error_message = excluded.error_message,
			processing_time_ms = excluded.processing_time_ms`,
		execution.ID, execution.RuleID, execution.RuleName, string(execution.Status),
		triggerData, actionResult, execution.ErrorMessage, execution.ExecutionTime,
		execution.ProcessingTime.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}
	return nil
}

// GetExecution fetches an execution record by id.
func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, executionSelect+" WHERE id = ?", id)
	exec, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return exec, nil
}

// GetExecutions lists execution records newest-first, optionally filtered
// to one rule, bounded by the filter limit.
func (s *SQLiteStore) GetExecutions(ctx context.Context, filter service.ExecutionFilter) ([]model.Execution, error) {
	query := executionSelect
	var args []any

	if filter.RuleID != "" {
		query += " WHERE rule_id = ?"
		args = append(args, filter.RuleID)
	}
	query += " ORDER BY execution_time DESC, rowid DESC LIMIT ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		result = append(result, *exec)
	}
	return result, rows.Err()
}

// GetStats aggregates statistics across all rules and executions.
func (s *SQLiteStore) GetStats(ctx context.Context) (*service.Stats, error) {
	stats := &service.Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM rules`).
		Scan(&stats.TotalRules, &stats.ActiveRules)
	if err != nil {
		return nil, fmt.Errorf("failed to count rules: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status = 'completed'), 0),
		       COALESCE(SUM(status = 'failed'), 0)
		FROM executions`).
		Scan(&stats.TotalExecutions, &stats.SuccessfulExecutions, &stats.FailedExecutions)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}

	// Amounts live inside the action_result JSON payload.
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(json_extract(action_result, '$.amount')), 0)
		FROM executions
		WHERE status = 'completed' AND action_result IS NOT NULL`).
		Scan(&stats.TotalAmountProcessed)
	if err != nil {
		return nil, fmt.Errorf("failed to sum processed amounts: %w", err)
	}

	monthAgo := s.clock().Add(-30 * 24 * time.Hour)
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(json_extract(action_result, '$.amount')), 0)
		FROM executions
		WHERE status = 'completed'
		  AND json_extract(action_result, '$.type') = 'savings'
		  AND execution_time >= ?`, monthAgo).
		Scan(&stats.MonthlySavings)
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly savings: %w", err)
	}

	if stats.TotalExecutions > 0 {
		stats.Efficiency = float64(stats.SuccessfulExecutions) / float64(stats.TotalExecutions) * 100
	}
	return stats, nil
}

const executionSelect = `
	SELECT id, rule_id, rule_name, status, trigger_data, action_result,
	       error_message, execution_time, processing_time_ms
	FROM executions`

func scanExecution(row rowScanner) (*model.Execution, error) {
	var exec model.Execution
	var status string
	var triggerData, actionResult, errorMessage sql.NullString
	var processingMs int64

	err := row.Scan(
		&exec.ID, &exec.RuleID, &exec.RuleName, &status,
		&triggerData, &actionResult, &errorMessage,
		&exec.ExecutionTime, &processingMs,
	)
	if err != nil {
		return nil, err
	}

	exec.Status = model.ExecutionStatus(status)
	exec.ErrorMessage = errorMessage.String
	exec.ProcessingTime = time.Duration(processingMs) * time.Millisecond

	if triggerData.Valid && triggerData.String != "" {
		if err := json.Unmarshal([]byte(triggerData.String), &exec.TriggerData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}
	if actionResult.Valid && actionResult.String != "" {
		var result model.ActionResult
		if err := json.Unmarshal([]byte(actionResult.String), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action result: %w", err)
		}
		exec.ActionResult = &result
	}
	return &exec, nil
}

// marshalNullable marshals v to JSON, mapping nil values to SQL NULL.
func marshalNullable(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return nil, nil
		}
	case *model.ActionResult:
		if val == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
