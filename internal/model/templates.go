package model

func intPtr(i int) *int { return &i }

// Templates returns the predefined automation rules offered to new users.
// Templates are created inactive; a user opts in by activating them.
func Templates() []Rule {
	return []Rule{
		{
			Name:        "Salary Savings Rule",
			Description: "Automatically save 20% of salary when received",
			Category:    CategorySavings,
			Priority:    1,
			Trigger: Trigger{
				Type: TriggerTransaction,
				Conditions: []Condition{
					{Field: FieldCategory, Operator: OpEquals, Value: "income-salary"},
					{Field: FieldAmount, Operator: OpGreaterThan, Value: 100000},
				},
			},
			Action: Action{
				Type:            ActionTransfer,
				SourceAccountID: "primary",
				Amount:          AmountSpec{Type: AmountPercentage, Value: 20, Currency: "NGN"},
				Description:     "Automatic salary savings",
			},
		},
		{
			Name:        "Emergency Fund Builder",
			Description: "Save a fixed amount monthly for the emergency fund",
			Category:    CategoryEmergencyFund,
			Priority:    2,
			Trigger: Trigger{
				Type:     TriggerSchedule,
				Schedule: &Schedule{DayOfMonth: intPtr(1), Time: "09:00"},
			},
			Action: Action{
				Type:            ActionTransfer,
				SourceAccountID: "primary",
				Amount:          AmountSpec{Type: AmountFixed, Value: 50000, Currency: "NGN"},
				Description:     "Emergency fund contribution",
			},
		},
		{
			Name:        "Monthly Investment",
			Description: "Invest a fixed amount monthly in mutual funds",
			Category:    CategoryInvestment,
			Priority:    3,
			Trigger: Trigger{
				Type:     TriggerSchedule,
				Schedule: &Schedule{DayOfMonth: intPtr(15), Time: "10:00"},
			},
			Action: Action{
				Type:            ActionInvestment,
				SourceAccountID: "primary",
				Amount:          AmountSpec{Type: AmountFixed, Value: 100000, Currency: "NGN"},
				Description:     "Monthly investment contribution",
			},
		},
		{
			Name:        "Utility Bills Auto-Pay",
			Description: "Automatically pay utility bills when due",
			Category:    CategoryBillPayment,
			Priority:    4,
			Trigger: Trigger{
				Type: TriggerTransaction,
				Conditions: []Condition{
					{Field: FieldCategory, Operator: OpIn, Value: []any{"bills-electricity", "bills-water", "bills-internet"}},
				},
			},
			Action: Action{
				Type:            ActionBillPayment,
				SourceAccountID: "primary",
				Amount:          AmountSpec{Type: AmountRemaining, Value: 0, Currency: "NGN"},
				Description:     "Automatic utility bill payment",
			},
		},
		{
			Name:        "Loan Repayment",
			Description: "Automatically pay loan installments",
			Category:    CategoryDebtRepayment,
			Priority:    5,
			Trigger: Trigger{
				Type:     TriggerSchedule,
				Schedule: &Schedule{DayOfMonth: intPtr(25), Time: "14:00"},
			},
			Action: Action{
				Type:            ActionTransfer,
				SourceAccountID: "primary",
				Amount:          AmountSpec{Type: AmountFixed, Value: 75000, Currency: "NGN"},
				Description:     "Loan installment payment",
			},
		},
		{
			Name:        "Spare Change Saver",
			Description: "Save spare change from everyday spending",
			Category:    CategorySavings,
			Priority:    6,
			Trigger: Trigger{
				Type: TriggerTransaction,
				Conditions: []Condition{
					{Field: FieldType, Operator: OpEquals, Value: "debit"},
					{Field: FieldAmount, Operator: OpGreaterThan, Value: 1000},
				},
			},
			Action: Action{
				Type:            ActionTransfer,
				SourceAccountID: "primary",
				Amount:          AmountSpec{Type: AmountCalculated, Value: 100, Currency: "NGN"},
				Description:     "Spare change savings",
			},
		},
		{
			Name:        "Business Expense Tracking",
			Description: "Separate business expenses automatically",
			Category:    CategoryCustom,
			Priority:    7,
			Trigger: Trigger{
				Type: TriggerTransaction,
				Conditions: []Condition{
					{Field: FieldCategory, Operator: OpIn, Value: []any{"business", "office", "professional"}},
				},
			},
			Action: Action{
				// Zero-amount transfer: the execution record is the point.
				Type:            ActionTransfer,
				SourceAccountID: "primary",
				Amount:          AmountSpec{Type: AmountFixed, Value: 0, Currency: "NGN"},
				Description:     "Business expense categorization",
			},
		},
		{
			Name:        "Tax Savings Fund",
			Description: "Save 10% monthly for tax obligations",
			Category:    CategorySavings,
			Priority:    8,
			Trigger: Trigger{
				Type:     TriggerSchedule,
				Schedule: &Schedule{DayOfMonth: intPtr(5), Time: "11:00"},
			},
			Action: Action{
				Type:            ActionTransfer,
				SourceAccountID: "primary",
				Amount:          AmountSpec{Type: AmountPercentage, Value: 10, Currency: "NGN"},
				Description:     "Tax savings contribution",
			},
		},
	}
}
