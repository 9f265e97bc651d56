package model

// ConditionField names an event attribute a condition inspects.
type ConditionField string

// Condition field constants.
const (
	FieldAmount      ConditionField = "amount"
	FieldCategory    ConditionField = "category"
	FieldVendor      ConditionField = "vendor"
	FieldDescription ConditionField = "description"
	FieldBalance     ConditionField = "balance"
	FieldDate        ConditionField = "date"
	FieldType        ConditionField = "type"
)

// ConditionOperator names the comparison applied to a field.
type ConditionOperator string

// Condition operator constants.
const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "not-equals"
	OpGreaterThan ConditionOperator = "greater-than"
	OpLessThan    ConditionOperator = "less-than"
	OpContains    ConditionOperator = "contains"
	OpStartsWith  ConditionOperator = "starts-with"
	OpEndsWith    ConditionOperator = "ends-with"
	OpBetween     ConditionOperator = "between"
	OpIn          ConditionOperator = "in"
	OpNotIn       ConditionOperator = "not-in"
)

// Condition is a single field/operator/value predicate on an event.
// SecondaryValue is only meaningful for the between operator, where Value
// and SecondaryValue are the lower and upper bounds in the order given.
type Condition struct {
	Value          any               `json:"value"`
	SecondaryValue any               `json:"secondary_value,omitempty"`
	Field          ConditionField    `json:"field"`
	Operator       ConditionOperator `json:"operator"`
}
