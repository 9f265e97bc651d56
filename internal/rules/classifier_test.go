package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func activeRule(trigger model.Trigger) *model.Rule {
	return &model.Rule{
		ID:       "rule-1",
		Name:     "test rule",
		IsActive: true,
		Trigger:  trigger,
		Execution: model.ExecutionState{
			Status: model.RuleStatusActive,
		},
	}
}

func TestShouldFireTransaction(t *testing.T) {
	c := NewClassifier(nil)
	rule := activeRule(model.Trigger{
		Type: model.TriggerTransaction,
		Conditions: []model.Condition{
			{Field: model.FieldCategory, Operator: model.OpEquals, Value: "income-salary"},
		},
	})

	t.Run("matching event fires", func(t *testing.T) {
		fire, err := c.ShouldFire(rule, &model.Event{Category: "income-salary"})
		require.NoError(t, err)
		assert.True(t, fire)
	})

	t.Run("non-matching event does not fire", func(t *testing.T) {
		fire, err := c.ShouldFire(rule, &model.Event{Category: "groceries"})
		require.NoError(t, err)
		assert.False(t, fire)
	})

	t.Run("no event never fires", func(t *testing.T) {
		fire, err := c.ShouldFire(rule, nil)
		require.NoError(t, err)
		assert.False(t, fire)
	})
}

func TestShouldFireGating(t *testing.T) {
	c := NewClassifier(nil)
	event := &model.Event{Category: "income-salary"}
	trigger := model.Trigger{
		Type: model.TriggerTransaction,
		Conditions: []model.Condition{
			{Field: model.FieldCategory, Operator: model.OpEquals, Value: "income-salary"},
		},
	}

	t.Run("inactive rule never fires", func(t *testing.T) {
		rule := activeRule(trigger)
		rule.IsActive = false
		fire, err := c.ShouldFire(rule, event)
		require.NoError(t, err)
		assert.False(t, fire)
	})

	t.Run("completed rule never fires", func(t *testing.T) {
		rule := activeRule(trigger)
		rule.Execution.Status = model.RuleStatusCompleted
		fire, err := c.ShouldFire(rule, event)
		require.NoError(t, err)
		assert.False(t, fire)
	})

	t.Run("cancelled rule never fires", func(t *testing.T) {
		rule := activeRule(trigger)
		rule.Execution.Status = model.RuleStatusCancelled
		fire, err := c.ShouldFire(rule, event)
		require.NoError(t, err)
		assert.False(t, fire)
	})

	t.Run("failed rule never fires", func(t *testing.T) {
		rule := activeRule(trigger)
		rule.Execution.Status = model.RuleStatusFailed
		fire, err := c.ShouldFire(rule, event)
		require.NoError(t, err)
		assert.False(t, fire)
	})
}

func TestShouldFireElapsedTime(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	c := NewClassifier(fixedClock(now))

	tests := []struct {
		name         string
		frequency    model.Frequency
		lastExecuted *time.Time
		want         bool
	}{
		{
			name:      "never executed is immediately due",
			frequency: model.FrequencyDaily,
			want:      true,
		},
		{
			name:         "daily due after 24h",
			frequency:    model.FrequencyDaily,
			lastExecuted: timePtr(now.Add(-25 * time.Hour)),
			want:         true,
		},
		{
			name:         "daily not due within 24h",
			frequency:    model.FrequencyDaily,
			lastExecuted: timePtr(now.Add(-23 * time.Hour)),
			want:         false,
		},
		{
			name:         "weekly uses a 7 day span",
			frequency:    model.FrequencyWeekly,
			lastExecuted: timePtr(now.Add(-8 * 24 * time.Hour)),
			want:         true,
		},
		{
			name:         "monthly uses a fixed 30 day span",
			frequency:    model.FrequencyMonthly,
			lastExecuted: timePtr(now.Add(-29 * 24 * time.Hour)),
			want:         false,
		},
		{
			name:         "invalid frequency never fires",
			frequency:    "fortnightly",
			lastExecuted: timePtr(now.Add(-90 * 24 * time.Hour)),
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := activeRule(model.Trigger{
				Type:      model.TriggerElapsedTime,
				Frequency: tt.frequency,
			})
			rule.Execution.LastExecuted = tt.lastExecuted
			fire, err := c.ShouldFire(rule, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fire)
		})
	}
}

func TestShouldFireSchedule(t *testing.T) {
	// March 1st 2024 is a Friday (weekday 5).
	firstAt0903 := time.Date(2024, 3, 1, 9, 3, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		schedule *model.Schedule
		want     bool
	}{
		{
			name:     "day of month with time fires inside window",
			now:      firstAt0903,
			schedule: &model.Schedule{DayOfMonth: intPtr(1), Time: "09:00"},
			want:     true,
		},
		{
			name:     "outside five minute window does not fire",
			now:      time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC),
			schedule: &model.Schedule{DayOfMonth: intPtr(1), Time: "09:00"},
			want:     false,
		},
		{
			name:     "window extends before the target time",
			now:      time.Date(2024, 3, 1, 8, 56, 0, 0, time.UTC),
			schedule: &model.Schedule{DayOfMonth: intPtr(1), Time: "09:00"},
			want:     true,
		},
		{
			name:     "wrong day of month does not fire",
			now:      time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
			schedule: &model.Schedule{DayOfMonth: intPtr(1), Time: "09:00"},
			want:     false,
		},
		{
			name:     "day of week match",
			now:      firstAt0903,
			schedule: &model.Schedule{DayOfWeek: intPtr(5)},
			want:     true,
		},
		{
			name:     "day of week mismatch",
			now:      firstAt0903,
			schedule: &model.Schedule{DayOfWeek: intPtr(1)},
			want:     false,
		},
		{
			name:     "no constraints always matches",
			now:      firstAt0903,
			schedule: &model.Schedule{},
			want:     true,
		},
		{
			name:     "nil schedule never fires",
			now:      firstAt0903,
			schedule: nil,
			want:     false,
		},
		{
			name:     "malformed time never fires",
			now:      firstAt0903,
			schedule: &model.Schedule{Time: "nine am"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(fixedClock(tt.now))
			rule := activeRule(model.Trigger{
				Type:     model.TriggerSchedule,
				Schedule: tt.schedule,
			})
			fire, err := c.ShouldFire(rule, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fire)
		})
	}
}

func TestShouldFireScheduleTimezone(t *testing.T) {
	// 08:00 UTC is 09:00 in Lagos (UTC+1).
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewClassifier(fixedClock(now))
	rule := activeRule(model.Trigger{
		Type:     model.TriggerSchedule,
		Schedule: &model.Schedule{Time: "09:00", Timezone: "Africa/Lagos"},
	})

	fire, err := c.ShouldFire(rule, nil)
	require.NoError(t, err)
	assert.True(t, fire)
}

func TestShouldFireIncomeDetection(t *testing.T) {
	c := NewClassifier(nil)
	rule := activeRule(model.Trigger{Type: model.TriggerIncomeDetection})

	tests := []struct {
		name  string
		event *model.Event
		want  bool
	}{
		{
			name:  "salary category",
			event: &model.Event{Category: "income-salary", Amount: 50000},
			want:  true,
		},
		{
			name:  "payroll description",
			event: &model.Event{Description: "ACME payroll deposit", Amount: 50000},
			want:  true,
		},
		{
			name:  "large amount without salary markers",
			event: &model.Event{Category: "misc", Amount: 150000},
			want:  true,
		},
		{
			name:  "small uncategorized credit",
			event: &model.Event{Category: "misc", Amount: 5000},
			want:  false,
		},
		{
			name:  "no event",
			event: nil,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fire, err := c.ShouldFire(rule, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fire)
		})
	}
}

func TestShouldFireBalanceReserved(t *testing.T) {
	c := NewClassifier(nil)
	rule := activeRule(model.Trigger{Type: model.TriggerBalance})

	fire, err := c.ShouldFire(rule, nil)
	require.NoError(t, err)
	assert.False(t, fire)
}

func TestShouldFireUnknownTrigger(t *testing.T) {
	c := NewClassifier(nil)
	rule := activeRule(model.Trigger{Type: "webhook"})

	fire, err := c.ShouldFire(rule, nil)
	assert.False(t, fire)

	var unsupported *common.UnsupportedTriggerError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "webhook", unsupported.Type)
}
