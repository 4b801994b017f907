package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 30-30-20 thresholds, in percent of income.
var (
	NeedsCeiling = decimal.NewFromInt(30)
	WantsCeiling = decimal.NewFromInt(30)
	SavingsFloor = decimal.NewFromInt(20)
)

const (
	InsightOK   InsightLevel = "ok"
	InsightWarn InsightLevel = "warn"
)

type InsightLevel string

// Insight is a single dashboard hint about the budget.
type Insight struct {
	Level   InsightLevel
	Message string
}

// Insights evaluates the 30-30-20 rule and the savings goal.
// Nothing is reported until an income has been entered.
func Insights(s BudgetSummary, symbol string) []Insight {
	if s.Income.IsZero() {
		return []Insight{{Level: InsightWarn, Message: "Enter your income to see how your budget compares to the 30–30–20 rule."}}
	}

	var out []Insight

	if s.Savings.IsNegative() {
		out = append(out, Insight{
			Level:   InsightWarn,
			Message: fmt.Sprintf("Expenses exceed income by %s.", FormatAmount(symbol, Money{Cents: -s.Savings.Cents})),
		})
	}

	out = append(out, ceilingInsight("Needs", s.NeedsPercent(), NeedsCeiling))
	out = append(out, ceilingInsight("Wants", s.WantsPercent(), WantsCeiling))

	if s.SavingsRate.GreaterThanOrEqual(SavingsFloor) {
		out = append(out, Insight{InsightOK, fmt.Sprintf("Savings rate is %s, at or above the %s target.", FormatPercent(s.SavingsRate), FormatPercent(SavingsFloor))})
	} else {
		out = append(out, Insight{InsightWarn, fmt.Sprintf("Savings rate is %s, below the %s target.", FormatPercent(s.SavingsRate), FormatPercent(SavingsFloor))})
	}

	if !s.SavingsGoal.IsZero() {
		if s.Savings.Cents >= s.SavingsGoal.Cents {
			out = append(out, Insight{InsightOK, fmt.Sprintf("Savings goal of %s reached.", FormatAmount(symbol, s.SavingsGoal))})
		} else {
			short := s.SavingsGoal.Sub(s.Savings.Max(Money{}))
			out = append(out, Insight{InsightWarn, fmt.Sprintf("%s short of the %s savings goal.", FormatAmount(symbol, short), FormatAmount(symbol, s.SavingsGoal))})
		}
	}
	return out
}

func ceilingInsight(label string, pct, ceiling decimal.Decimal) Insight {
	if pct.LessThanOrEqual(ceiling) {
		return Insight{InsightOK, fmt.Sprintf("%s are %s of income, within the %s limit.", label, FormatPercent(pct), FormatPercent(ceiling))}
	}
	return Insight{InsightWarn, fmt.Sprintf("%s are %s of income, above the %s limit.", label, FormatPercent(pct), FormatPercent(ceiling))}
}
