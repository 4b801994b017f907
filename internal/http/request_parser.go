// Package http provides HTTP server and handler implementations.
//
// This file implements parsing of the budgeting form into domain values.

package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"budgeting/internal/core"
	"budgeting/internal/services"
)

// Form field names shared with the templates.
const (
	fieldPeriod      = "period"
	fieldIncome      = "income"
	fieldSavingsGoal = "savings_goal"
	fieldStudentName = "student_name"
	fieldCourse      = "course"
	expensePrefix    = "expense_"
	reflectionPrefix = "reflection_"

	maxFormBytes = 64 << 10
)

func expenseField(c core.Category) string { return expensePrefix + c.Key() }

func reflectionField(i int) string { return reflectionPrefix + strconv.Itoa(i+1) }

// ParseBudgetInput reads the period, income, savings goal and the six
// category amounts. Missing amounts are zero.
func ParseBudgetInput(form url.Values) (core.BudgetInput, error) {
	var in core.BudgetInput

	period, err := core.ParsePeriod(form.Get(fieldPeriod))
	if err != nil {
		return in, err
	}
	in.Period = period

	if in.Income, err = parseAmountField(form, fieldIncome, "income"); err != nil {
		return in, err
	}
	if in.SavingsGoal, err = parseAmountField(form, fieldSavingsGoal, "savings goal"); err != nil {
		return in, err
	}
	for _, c := range core.Categories {
		if in.Expenses[c], err = parseAmountField(form, expenseField(c), c.String()); err != nil {
			return in, err
		}
	}
	return in, nil
}

// ParseGenerateRequest reads the full form including identity and reflections.
func ParseGenerateRequest(form url.Values) (services.GenerateRequest, error) {
	in, err := ParseBudgetInput(form)
	if err != nil {
		return services.GenerateRequest{}, err
	}
	req := services.GenerateRequest{
		StudentName: sanitizeInput(form.Get(fieldStudentName)),
		Course:      sanitizeInput(form.Get(fieldCourse)),
		Input:       in,
	}
	for i := range req.Reflections {
		req.Reflections[i] = sanitizeInput(form.Get(reflectionField(i)))
	}
	return req, nil
}

func parseAmountField(form url.Values, name, label string) (core.Money, error) {
	m, err := core.ParseAmount(form.Get(name))
	if err != nil {
		return core.Money{}, fmt.Errorf("%s: %w", label, err)
	}
	return m, nil
}

// ParseFormOrFail parses the request form with a body size cap and returns an
// error response on failure. Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
