// Package budgetfile reads and writes budget submissions as TOML documents
// for offline rendering.
//
// Example:
//
//	student_name = "Asha Rao"
//	course = "FIN101"
//	period = "Monthly"
//	income = 50000
//	savings_goal = "10000.50"
//	reflections = ["Food costs", "", "", "", "Budgets help"]
//
//	[expenses]
//	housing = 15000
//	food = 8000
package budgetfile

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"budgeting/internal/core"
	"budgeting/internal/services"
)

// File is one submission on disk. Expense keys are category keys
// (housing, food, transport, utilities, lifestyle, others).
type File struct {
	StudentName string            `toml:"student_name"`
	Course      string            `toml:"course"`
	Period      string            `toml:"period"`
	Income      Amount            `toml:"income"`
	SavingsGoal Amount            `toml:"savings_goal"`
	Reflections []string          `toml:"reflections"`
	Expenses    map[string]Amount `toml:"expenses"`
}

// Amount accepts TOML integers, floats and decimal strings.
type Amount struct {
	core.Money
}

func (a *Amount) UnmarshalTOML(v interface{}) error {
	var s string
	switch x := v.(type) {
	case int64:
		s = strconv.FormatInt(x, 10)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		s = x
	default:
		return fmt.Errorf("amount must be a number or string, got %T", v)
	}
	m, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	a.Money = m
	return nil
}

// MarshalText writes the exact amount, e.g. "12000.50".
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.Decimal().StringFixed(2)), nil
}

// Load reads and decodes path. Unknown keys are rejected so typos do not
// silently become zero amounts.
func Load(path string) (File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return f, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return f, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Decode reads a budget document from r.
func Decode(r io.Reader) (File, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return f, err
	}
	return f, checkUndecoded(md)
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}

// Encode writes f as TOML.
func Encode(w io.Writer, f File) error {
	return toml.NewEncoder(w).Encode(f)
}

// Save writes f to path, replacing any existing file.
func Save(path string, f File) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(out, f); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

// Request converts the file into a report request. Input validation beyond
// parsing is left to the report service.
func (f File) Request() (services.GenerateRequest, error) {
	period, err := core.ParsePeriod(f.Period)
	if err != nil {
		return services.GenerateRequest{}, err
	}
	req := services.GenerateRequest{
		StudentName: f.StudentName,
		Course:      f.Course,
		Input: core.BudgetInput{
			Period:      period,
			Income:      f.Income.Money,
			SavingsGoal: f.SavingsGoal.Money,
		},
	}

	keys := make([]string, 0, len(f.Expenses))
	for k := range f.Expenses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c, err := core.CategoryByKey(k)
		if err != nil {
			return services.GenerateRequest{}, err
		}
		req.Input.Expenses[c] = f.Expenses[k].Money
	}

	if len(f.Reflections) > len(req.Reflections) {
		return services.GenerateRequest{}, fmt.Errorf("%w: at most %d reflections, got %d",
			core.ErrValidation, len(req.Reflections), len(f.Reflections))
	}
	copy(req.Reflections[:], f.Reflections)
	return req, nil
}

// Example is a filled-in starting point for new budget files.
func Example() File {
	f := File{
		StudentName: "Your Name",
		Course:      "Course Code",
		Period:      string(core.Monthly),
		Income:      Amount{core.Units(50000)},
		SavingsGoal: Amount{core.Units(10000)},
		Reflections: make([]string, len(core.ReflectionPrompts)),
		Expenses:    make(map[string]Amount, len(core.Categories)),
	}
	for _, c := range core.Categories {
		f.Expenses[c.Key()] = Amount{}
	}
	return f
}
