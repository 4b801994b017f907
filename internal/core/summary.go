package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// BudgetSummary holds the metrics derived from a BudgetInput.
// Needs + Wants + Other always equals TotalExpenses.
type BudgetSummary struct {
	Period        Period
	Income        Money
	SavingsGoal   Money
	Expenses      Expenses
	TotalExpenses Money
	Savings       Money
	SavingsRate   decimal.Decimal // percent of income, 0 when income is 0
	ExpenseRatio  decimal.Decimal // percent of income, 0 when income is 0
	Needs         Money
	Wants         Money
	Other         Money
}

// ComputeSummary derives every metric from in. It is pure and never fails.
func ComputeSummary(in BudgetInput) BudgetSummary {
	s := BudgetSummary{
		Period:      in.Period,
		Income:      in.Income,
		SavingsGoal: in.SavingsGoal,
		Expenses:    in.Expenses,
	}
	for _, c := range Categories {
		amount := in.Expenses[c]
		switch c.Group() {
		case GroupNeeds:
			s.Needs = s.Needs.Add(amount)
		case GroupWants:
			s.Wants = s.Wants.Add(amount)
		default:
			s.Other = s.Other.Add(amount)
		}
	}
	s.TotalExpenses = in.Expenses.Total()
	s.Savings = in.Income.Sub(s.TotalExpenses)
	s.SavingsRate = PercentOf(s.Savings, in.Income)
	s.ExpenseRatio = PercentOf(s.TotalExpenses, in.Income)
	return s
}

// NeedsPercent is needs as a percentage of income.
func (s BudgetSummary) NeedsPercent() decimal.Decimal { return PercentOf(s.Needs, s.Income) }

// WantsPercent is wants as a percentage of income.
func (s BudgetSummary) WantsPercent() decimal.Decimal { return PercentOf(s.Wants, s.Income) }

// GroupTotal returns the total for one 30-30-20 group.
func (s BudgetSummary) GroupTotal(g Group) Money {
	switch g {
	case GroupNeeds:
		return s.Needs
	case GroupWants:
		return s.Wants
	default:
		return s.Other
	}
}

// PercentOf returns part/whole*100, or zero when whole is zero.
func PercentOf(part, whole Money) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).Mul(hundred).Div(decimal.NewFromInt(whole.Cents))
}

// FormatPercent renders a percentage with one decimal place, e.g. "32.0%".
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}
