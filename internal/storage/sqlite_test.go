package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/service"
)

func newTestStore(t *testing.T, clock func() time.Time) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func sqliteRule(id string) *model.Rule {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	maxExecutions := 12
	next := now.Add(24 * time.Hour)
	return &model.Rule{
		ID:          id,
		Name:        "Salary Savings",
		Description: "Save 20% of salary",
		CreatedBy:   "user-1",
		Category:    model.CategorySavings,
		Priority:    1,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Trigger: model.Trigger{
			Type: model.TriggerTransaction,
			Conditions: []model.Condition{
				{Field: model.FieldCategory, Operator: model.OpEquals, Value: "income-salary"},
				{Field: model.FieldAmount, Operator: model.OpGreaterThan, Value: float64(100000)},
			},
		},
		Action: model.Action{
			Type:                 model.ActionSavings,
			SourceAccountID:      "acct-main",
			DestinationAccountID: "acct-savings",
			Description:          "Automatic salary savings",
			Amount:               model.AmountSpec{Type: model.AmountPercentage, Value: 20, Currency: "NGN"},
		},
		Execution: model.ExecutionState{
			Status:        model.RuleStatusActive,
			MaxRetries:    3,
			MaxExecutions: &maxExecutions,
			NextExecution: &next,
		},
	}
}

func TestSQLiteMigrate(t *testing.T) {
	store := newTestStore(t, nil)

	// Migrating an up-to-date database is a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSQLiteRuleRoundTrip(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	rule := sqliteRule("r1")
	require.NoError(t, store.SaveRule(ctx, rule))

	got, err := store.GetRule(ctx, "r1")
	require.NoError(t, err)

	assert.Equal(t, rule.Name, got.Name)
	assert.Equal(t, rule.Description, got.Description)
	assert.Equal(t, rule.CreatedBy, got.CreatedBy)
	assert.Equal(t, rule.Category, got.Category)
	assert.Equal(t, rule.Priority, got.Priority)
	assert.True(t, got.IsActive)

	// Trigger and action survive the JSON columns.
	assert.Equal(t, rule.Trigger.Type, got.Trigger.Type)
	require.Len(t, got.Trigger.Conditions, 2)
	assert.Equal(t, model.FieldCategory, got.Trigger.Conditions[0].Field)
	assert.Equal(t, "income-salary", got.Trigger.Conditions[0].Value)
	assert.Equal(t, rule.Action.Type, got.Action.Type)
	assert.InDelta(t, 20, got.Action.Amount.Value, 0.001)

	require.NotNil(t, got.Execution.MaxExecutions)
	assert.Equal(t, 12, *got.Execution.MaxExecutions)
	require.NotNil(t, got.Execution.NextExecution)
	assert.True(t, got.Execution.NextExecution.Equal(*rule.Execution.NextExecution))
	assert.Nil(t, got.Execution.LastExecuted)
}

func TestSQLiteRuleUpdatePreservesOrder(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	first := sqliteRule("r1")
	first.Name = "first"
	first.Priority = 5
	require.NoError(t, store.SaveRule(ctx, first))

	second := sqliteRule("r2")
	second.Name = "second"
	second.Priority = 5
	require.NoError(t, store.SaveRule(ctx, second))

	// Re-saving the first rule keeps its insertion slot.
	first.Name = "first updated"
	first.Execution.ExecutionCount = 3
	require.NoError(t, store.SaveRule(ctx, first))

	got, err := store.GetRules(ctx, service.RuleFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first updated", got[0].Name)
	assert.Equal(t, 3, got[0].Execution.ExecutionCount)
	assert.Equal(t, "second", got[1].Name)
}

func TestSQLiteGetRulesFilters(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	active := sqliteRule("r1")
	require.NoError(t, store.SaveRule(ctx, active))

	failed := sqliteRule("r2")
	failed.IsActive = false
	failed.Execution.Status = model.RuleStatusFailed
	require.NoError(t, store.SaveRule(ctx, failed))

	isActive := true
	got, err := store.GetRules(ctx, service.RuleFilter{IsActive: &isActive})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)

	status := model.RuleStatusFailed
	got, err = store.GetRules(ctx, service.RuleFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)
}

func TestSQLiteDeleteRule(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveRule(ctx, sqliteRule("r1")))
	require.NoError(t, store.DeleteRule(ctx, "r1"))

	_, err := store.GetRule(ctx, "r1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteRule(ctx, "r1"), common.ErrNotFound)
}

func TestSQLiteExecutionFinalize(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	exec := &model.Execution{
		ID:            "e1",
		RuleID:        "r1",
		RuleName:      "Salary Savings",
		Status:        model.ExecutionExecuting,
		TriggerData:   map[string]any{"event_id": "evt-1"},
		ExecutionTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveExecution(ctx, exec))

	exec.Status = model.ExecutionCompleted
	exec.ProcessingTime = 42 * time.Millisecond
	exec.ActionResult = &model.ActionResult{
		Type:               model.ActionSavings,
		Amount:             20000,
		SourceAccount:      "acct-main",
		DestinationAccount: "acct-savings",
		Status:             "completed",
		Reference:          "ref-1",
	}
	require.NoError(t, store.SaveExecution(ctx, exec))

	got, err := store.GetExecution(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionCompleted, got.Status)
	assert.Equal(t, 42*time.Millisecond, got.ProcessingTime)
	assert.Equal(t, "evt-1", got.TriggerData["event_id"])
	require.NotNil(t, got.ActionResult)
	assert.InDelta(t, 20000, got.ActionResult.Amount, 0.001)
	assert.Equal(t, "ref-1", got.ActionResult.Reference)

	all, err := store.GetExecutions(ctx, service.ExecutionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteExecutionsNewestFirst(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, store.SaveExecution(ctx, &model.Execution{
			ID:            id,
			RuleID:        "r1",
			Status:        model.ExecutionFailed,
			ErrorMessage:  "bank gateway unavailable",
			ExecutionTime: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := store.GetExecutions(ctx, service.ExecutionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e3", got[0].ID)
	assert.Equal(t, "e1", got[2].ID)
	assert.Equal(t, "bank gateway unavailable", got[0].ErrorMessage)

	got, err = store.GetExecutions(ctx, service.ExecutionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e3", got[0].ID)
}

func TestSQLiteGetStats(t *testing.T) {
	now := time.Date(2024, time.March, 25, 9, 0, 0, 0, time.UTC)
	store := newTestStore(t, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.SaveRule(ctx, sqliteRule("r1")))
	inactive := sqliteRule("r2")
	inactive.IsActive = false
	require.NoError(t, store.SaveRule(ctx, inactive))
	require.NoError(t, store.SaveExecution(ctx, &model.Execution{
		ID: "e1", RuleID: "r1", Status: model.ExecutionCompleted,
		ExecutionTime: now.Add(-time.Hour),
		ActionResult:  &model.ActionResult{Type: model.ActionSavings, Amount: 20000},
	}))
	require.NoError(t, store.SaveExecution(ctx, &model.Execution{
		ID: "e2", RuleID: "r1", Status: model.ExecutionCompleted,
		ExecutionTime: now.Add(-45 * 24 * time.Hour),
		ActionResult:  &model.ActionResult{Type: model.ActionSavings, Amount: 50000},
	}))
	require.NoError(t, store.SaveExecution(ctx, &model.Execution{
		ID: "e3", RuleID: "r1", Status: model.ExecutionFailed,
		ExecutionTime: now.Add(-time.Hour),
	}))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRules)
	assert.Equal(t, 1, stats.ActiveRules)
	assert.Equal(t, 3, stats.TotalExecutions)
	assert.Equal(t, 2, stats.SuccessfulExecutions)
	assert.Equal(t, 1, stats.FailedExecutions)
	assert.InDelta(t, 70000, stats.TotalAmountProcessed, 0.001)
	assert.InDelta(t, 20000, stats.MonthlySavings, 0.001)
	assert.InDelta(t, 66.666, stats.Efficiency, 0.01)
}

func TestSQLiteValidation(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	t.Run("empty id lookups", func(t *testing.T) {
		_, err := store.GetRule(ctx, "")
		assert.Error(t, err)
		_, err = store.GetExecution(ctx, "")
		assert.Error(t, err)
	})

	t.Run("nil rule", func(t *testing.T) {
		assert.Error(t, store.SaveRule(ctx, nil))
	})

	t.Run("nil execution", func(t *testing.T) {
		assert.Error(t, store.SaveExecution(ctx, nil))
	})
}
