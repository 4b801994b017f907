package budgetfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budgeting/internal/core"
)

const sample = `
student_name = "Asha Rao"
course = "FIN101"
period = "yearly"
income = 600000
savings_goal = "1,20,000.50"
reflections = ["Food costs", "", "", "", "Budgets help"]

[expenses]
housing = 180000
food = 96000.25
lifestyle = "24000"
`

func TestDecodeAndRequest(t *testing.T) {
	f, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	req, err := f.Request()
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	if req.StudentName != "Asha Rao" || req.Course != "FIN101" {
		t.Errorf("identity = %q / %q", req.StudentName, req.Course)
	}
	if req.Input.Period != core.Yearly {
		t.Errorf("period = %q", req.Input.Period)
	}
	if req.Input.Income != core.Units(600000) {
		t.Errorf("income = %v", req.Input.Income)
	}
	if req.Input.SavingsGoal != (core.Money{Cents: 12000050}) {
		t.Errorf("savings goal = %v", req.Input.SavingsGoal)
	}
	want := map[core.Category]core.Money{
		core.Housing:   core.Units(180000),
		core.Food:      {Cents: 9600025},
		core.Lifestyle: core.Units(24000),
		core.Transport: {},
	}
	for c, m := range want {
		if req.Input.Expenses[c] != m {
			t.Errorf("%s = %v, want %v", c, req.Input.Expenses[c], m)
		}
	}
	if req.Reflections[0] != "Food costs" || req.Reflections[4] != "Budgets help" {
		t.Errorf("reflections = %q", req.Reflections)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"unknown top-level key", "student = \"x\"\n", "unknown keys"},
		{"negative amount", "income = -10\n", "cannot be negative"},
		{"bad amount type", "income = true\n", "number or string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		file File
		want error
	}{
		{"unknown category", File{Expenses: map[string]Amount{"rent": {}}}, core.ErrUnknownCategory},
		{"unknown period", File{Period: "weekly"}, core.ErrUnknownPeriod},
		{"too many reflections", File{Reflections: make([]string, 6)}, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.file.Request(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExampleSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.toml")
	if err := Save(path, Example()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`income = "50000.00"`)) {
		t.Errorf("amounts not written as exact decimals:\n%s", data)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	req, err := f.Request()
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.Input.Income != core.Units(50000) || len(f.Expenses) != len(core.Categories) {
		t.Errorf("example did not survive a save/load: %+v", f)
	}
}
