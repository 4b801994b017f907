package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly Period = "Monthly"
	Yearly  Period = "Yearly"
)

// Expense categories in their fixed declaration order.
const (
	Housing Category = iota
	Food
	Transport
	Utilities
	Lifestyle
	Others

	categoryCount
)

const (
	GroupNeeds Group = "needs"
	GroupWants Group = "wants"
	GroupOther Group = "other"
)

type (
	Period string

	Category int

	// Group is the 30-30-20 bucket a category belongs to.
	Group string

	// Expenses holds one amount per category, indexed by Category.
	Expenses [categoryCount]Money

	// BudgetInput is an immutable snapshot of the form state.
	BudgetInput struct {
		Period      Period
		Income      Money
		SavingsGoal Money
		Expenses    Expenses
	}

	// ReflectionAnswers are the five free-text answers, in prompt order.
	ReflectionAnswers [5]string

	// SubmissionRecord exists only for the duration of one report generation.
	SubmissionRecord struct {
		StudentName string
		Course      string
		Date        time.Time
		Summary     BudgetSummary
		Reflections ReflectionAnswers
	}
)

// Categories lists every category in declared order.
var Categories = [categoryCount]Category{Housing, Food, Transport, Utilities, Lifestyle, Others}

var categoryInfo = [categoryCount]struct {
	name  string
	key   string
	group Group
}{
	Housing:   {"Housing (Rent / EMI)", "housing", GroupNeeds},
	Food:      {"Food", "food", GroupNeeds},
	Transport: {"Transport", "transport", GroupOther},
	Utilities: {"Utilities", "utilities", GroupNeeds},
	Lifestyle: {"Lifestyle & Entertainment", "lifestyle", GroupWants},
	Others:    {"Others", "others", GroupOther},
}

// ReflectionPrompts are the questions answered in ReflectionAnswers.
var ReflectionPrompts = [5]string{
	"What surprised you most about your spending pattern?",
	"Which expense would you reduce to improve savings? Why?",
	"Did your budget follow the 30–30–20 rule? Explain.",
	"One financial habit you want to change after this exercise.",
	"One-line reflection: “After this activity, I realized that …”",
}

// ErrValidation is wrapped by every input validation failure.
var ErrValidation = errors.New("validation failed")

var (
	ErrEmptyStudentName = fmt.Errorf("%w: student name is required", ErrValidation)
	ErrEmptyCourse      = fmt.Errorf("%w: course is required", ErrValidation)
	ErrNegativeAmount   = fmt.Errorf("%w: amounts cannot be negative", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrAmountTooLarge   = fmt.Errorf("%w: amount is too large", ErrValidation)
	ErrUnknownPeriod    = fmt.Errorf("%w: unknown budget period", ErrValidation)
	ErrUnknownCategory  = fmt.Errorf("%w: unknown expense category", ErrValidation)
)

// ParsePeriod accepts "Monthly" or "Yearly", case-insensitively. Empty means Monthly.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	}
	return "", ErrUnknownPeriod
}

func (p Period) Validate() error {
	if p != Monthly && p != Yearly {
		return ErrUnknownPeriod
	}
	return nil
}

// String returns the display name, e.g. "Housing (Rent / EMI)".
func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryInfo[c].name
}

// Key is the stable identifier used in form fields and budget files.
func (c Category) Key() string {
	if !c.valid() {
		return ""
	}
	return categoryInfo[c].key
}

func (c Category) Group() Group {
	if !c.valid() {
		return GroupOther
	}
	return categoryInfo[c].group
}

func (c Category) valid() bool {
	return c >= 0 && c < categoryCount
}

// CategoryByKey resolves a form/file key back to its Category.
func CategoryByKey(key string) (Category, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, c := range Categories {
		if categoryInfo[c].key == key {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownCategory, key)
}

func (e Expenses) Total() Money {
	var total Money
	for _, m := range e {
		total = total.Add(m)
	}
	return total
}

// Validate checks the period and that every amount is within [0, MaxAmount].
func (in BudgetInput) Validate() error {
	if err := in.Period.Validate(); err != nil {
		return err
	}
	amounts := append([]Money{in.Income, in.SavingsGoal}, in.Expenses[:]...)
	for _, m := range amounts {
		if m.IsNegative() {
			return ErrNegativeAmount
		}
		if m.Cents > MaxAmount.Cents {
			return ErrAmountTooLarge
		}
	}
	return nil
}

// NewSubmissionRecord builds the record for one report generation.
// Name and course are trimmed and must be non-empty.
func NewSubmissionRecord(name, course string, date time.Time, summary BudgetSummary, answers ReflectionAnswers) (SubmissionRecord, error) {
	name = strings.TrimSpace(name)
	course = strings.TrimSpace(course)
	if name == "" {
		return SubmissionRecord{}, ErrEmptyStudentName
	}
	if course == "" {
		return SubmissionRecord{}, ErrEmptyCourse
	}
	return SubmissionRecord{
		StudentName: name,
		Course:      course,
		Date:        date,
		Summary:     summary,
		Reflections: answers,
	}, nil
}
