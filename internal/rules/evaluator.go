// Package rules implements trigger evaluation: condition matching against
// financial events and trigger classification for every trigger kind.
package rules

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/osaze/moneyflow/internal/model"
)

// Evaluate reports whether every condition holds against the event.
// Pure: no state, no side effects. An empty condition list matches.
func Evaluate(conditions []model.Condition, event model.Event) bool {
	for _, cond := range conditions {
		if !evaluateCondition(cond, event) {
			return false
		}
	}
	return true
}

func evaluateCondition(cond model.Condition, event model.Event) bool {
	fieldValue := resolveField(event, cond.Field)

	switch cond.Operator {
	case model.OpEquals:
		return equalValues(fieldValue, cond.Value)
	case model.OpNotEquals:
		return !equalValues(fieldValue, cond.Value)
	case model.OpGreaterThan:
		a, aok := toNumber(fieldValue)
		b, bok := toNumber(cond.Value)
		return aok && bok && a > b
	case model.OpLessThan:
		a, aok := toNumber(fieldValue)
		b, bok := toNumber(cond.Value)
		return aok && bok && a < b
	case model.OpContains:
		return strings.Contains(lower(fieldValue), lower(cond.Value))
	case model.OpStartsWith:
		return strings.HasPrefix(lower(fieldValue), lower(cond.Value))
	case model.OpEndsWith:
		return strings.HasSuffix(lower(fieldValue), lower(cond.Value))
	case model.OpBetween:
		v, vok := toNumber(fieldValue)
		lo, lok := toNumber(cond.Value)
		hi, hok := toNumber(cond.SecondaryValue)
		// Bounds are taken in the order given, never swapped.
		return vok && lok && hok && v >= lo && v <= hi
	case model.OpIn:
		return contains(cond.Value, fieldValue)
	case model.OpNotIn:
		return isSequence(cond.Value) && !contains(cond.Value, fieldValue)
	}

	// Unrecognized operator: fail closed.
	return false
}

// resolveField maps a condition field to the event attribute it inspects.
// Vendor resolves to the metadata merchant name, falling back to the
// description. Unknown fields resolve to nil and fail any comparison.
func resolveField(event model.Event, field model.ConditionField) any {
	switch field {
	case model.FieldAmount:
		return event.Amount
	case model.FieldCategory:
		return event.Category
	case model.FieldVendor:
		return event.MerchantName()
	case model.FieldDescription:
		return event.Description
	case model.FieldDate:
		return event.Date
	case model.FieldType:
		return string(event.Type)
	}
	return nil
}

// toNumber coerces a value to float64. Strings are parsed; anything that
// cannot be coerced reports false, which fails the comparison rather than
// comparing against zero.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// equalValues compares numerically when both operands coerce to numbers,
// otherwise as strings, otherwise structurally.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if aok && bok {
		return af == bf
	}
	as, asok := a.(string)
	bs, bsok := b.(string)
	if asok && bsok {
		return as == bs
	}
	return reflect.DeepEqual(a, b)
}

func lower(v any) string {
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return ""
		}
		s = stringify(v)
	}
	return strings.ToLower(s)
}

func stringify(v any) string {
	if f, ok := toNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// isSequence reports whether v is a slice or array.
func isSequence(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// contains performs the membership test for in/not-in. A non-sequence
// value fails closed.
func contains(seq, needle any) bool {
	if !isSequence(seq) {
		return false
	}
	rv := reflect.ValueOf(seq)
	for i := 0; i < rv.Len(); i++ {
		if equalValues(rv.Index(i).Interface(), needle) {
			return true
		}
	}
	return false
}
