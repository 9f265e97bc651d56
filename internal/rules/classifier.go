package rules

import (
	"strconv"
	"strings"
	"time"

	"github.com/osaze/moneyflow/internal/common"
	"github.com/osaze/moneyflow/internal/model"
)

// LargeIncomeThreshold is the amount above which a credit counts as income
// for the income-detection heuristic, regardless of category.
const LargeIncomeThreshold = 100000

// scheduleWindow is how far from a configured time-of-day a schedule
// trigger still fires.
const scheduleWindow = 5 * time.Minute

// Classifier decides whether a rule's trigger fires. Stateless apart from
// the injected clock, which keeps evaluation deterministic in tests.
type Classifier struct {
	clock func() time.Time
}

// NewClassifier creates a classifier using the given clock. A nil clock
// defaults to time.Now.
func NewClassifier(clock func() time.Time) *Classifier {
	if clock == nil {
		clock = time.Now
	}
	return &Classifier{clock: clock}
}

// ShouldFire reports whether the rule's trigger fires now, given an
// optional incoming event. Inactive rules and rules in a terminal status
// never fire. An unknown trigger kind is a configuration error.
func (c *Classifier) ShouldFire(rule *model.Rule, event *model.Event) (bool, error) {
	if !rule.IsActive || rule.Execution.Status.Terminal() {
		return false, nil
	}

	switch rule.Trigger.Type {
	case model.TriggerTransaction:
		if event == nil {
			return false, nil
		}
		return Evaluate(rule.Trigger.Conditions, *event), nil

	case model.TriggerElapsedTime:
		return c.elapsedTimeDue(rule), nil

	case model.TriggerSchedule:
		return c.scheduleMatches(rule.Trigger.Schedule), nil

	case model.TriggerBalance:
		// Reserved; balance-threshold evaluation is not yet supported.
		return false, nil

	case model.TriggerIncomeDetection:
		return isIncome(event), nil
	}

	return false, &common.UnsupportedTriggerError{Type: string(rule.Trigger.Type)}
}

// elapsedTimeDue reports whether enough time has passed since the last
// execution. A rule that never executed is immediately due.
func (c *Classifier) elapsedTimeDue(rule *model.Rule) bool {
	last := rule.Execution.LastExecuted
	if last == nil {
		return true
	}
	interval, ok := rule.Trigger.Frequency.Duration()
	if !ok {
		return false
	}
	return c.clock().Sub(*last) >= interval
}

// scheduleMatches reports whether the wall clock currently satisfies the
// schedule. Absent day constraints always match; a configured time-of-day
// must be within the 5-minute window.
func (c *Classifier) scheduleMatches(schedule *model.Schedule) bool {
	if schedule == nil {
		return false
	}

	now := c.clock()
	if schedule.Timezone != "" {
		if loc, err := time.LoadLocation(schedule.Timezone); err == nil {
			now = now.In(loc)
		}
	}

	if schedule.DayOfWeek != nil && int(now.Weekday()) != *schedule.DayOfWeek {
		return false
	}
	if schedule.DayOfMonth != nil && now.Day() != *schedule.DayOfMonth {
		return false
	}

	if schedule.Time != "" {
		hour, minute, ok := parseClock(schedule.Time)
		if !ok {
			return false
		}
		target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		diff := now.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		return diff <= scheduleWindow
	}

	return true
}

// parseClock parses an HH:MM time of day.
func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// isIncome applies the income-detection heuristic: a salary-marked
// category, a salary/payroll description, or a large amount.
func isIncome(event *model.Event) bool {
	if event == nil {
		return false
	}

	desc := strings.ToLower(event.Description)
	isSalary := event.Category == "income-salary" ||
		strings.Contains(desc, "salary") ||
		strings.Contains(desc, "payroll")

	return isSalary || event.Amount > LargeIncomeThreshold
}
