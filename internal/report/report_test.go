package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"budgeting/internal/core"
	"budgeting/internal/fonts"
)

func scenario(t *testing.T) LayoutInput {
	t.Helper()
	in := core.BudgetInput{Period: core.Monthly, Income: core.Units(50000)}
	in.Expenses[core.Housing] = core.Units(15000)
	in.Expenses[core.Food] = core.Units(8000)
	in.Expenses[core.Transport] = core.Units(3000)
	in.Expenses[core.Utilities] = core.Units(2000)
	in.Expenses[core.Lifestyle] = core.Units(5000)
	in.Expenses[core.Others] = core.Units(1000)

	rec, err := core.NewSubmissionRecord("Asha Rao", "FIN101",
		time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		core.ComputeSummary(in),
		core.ReflectionAnswers{"Food.", "Lifestyle.", "Mostly.", "Cook more.", "I spend more than I think."})
	if err != nil {
		t.Fatal(err)
	}
	return LayoutInput{
		Record:           rec,
		Input:            in,
		CategoryChart:    "category.png",
		OverviewChart:    "overview.png",
		CurrencySymbol:   "₹",
		ShowExpenseRatio: true,
	}
}

func texts(doc Document) []string {
	var out []string
	for _, b := range doc.Blocks {
		if t, ok := b.(Text); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

func TestLayoutIsDeterministic(t *testing.T) {
	in := scenario(t)
	a, b := Layout(in), Layout(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical input produced different documents")
	}
}

func TestLayoutOrder(t *testing.T) {
	doc := Layout(scenario(t))

	want := []string{
		Title,
		"Name: Asha Rao",
		"Course: FIN101",
		"Date: 14 March 2026",
		"Budget Summary",
		"Monthly Income: ₹50,000",
		"Expenses: ₹34,000",
		"Savings: ₹16,000",
		"Savings Rate: 32.0%",
		"Expense Ratio: 68.0%",
		"Expense Breakdown",
		"Expense Distribution",
		"Savings vs Expenses Overview",
		"Student Reflection",
	}
	if got := texts(doc); !reflect.DeepEqual(got, want) {
		t.Fatalf("text lines:\n got %q\nwant %q", got, want)
	}
	if doc.Author != "Asha Rao" || !doc.Date.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected metadata %q %v", doc.Author, doc.Date)
	}

	var tables []Table
	var images []Image
	var paragraphs []Paragraph
	for _, b := range doc.Blocks {
		switch b := b.(type) {
		case Table:
			tables = append(tables, b)
		case Image:
			images = append(images, b)
		case Paragraph:
			paragraphs = append(paragraphs, b)
		}
	}

	if len(tables) != 1 {
		t.Fatalf("expected one table, got %d", len(tables))
	}
	tbl := tables[0]
	if tbl.Widths != [2]float64{110, 40} || tbl.Header != [2]string{"Category", "Amount (₹)"} {
		t.Errorf("unexpected table header %+v", tbl)
	}
	wantRows := [][2]string{
		{"Housing (Rent / EMI)", "₹15,000"},
		{"Food", "₹8,000"},
		{"Transport", "₹3,000"},
		{"Utilities", "₹2,000"},
		{"Lifestyle & Entertainment", "₹5,000"},
		{"Others", "₹1,000"},
	}
	if !reflect.DeepEqual(tbl.Rows, wantRows) {
		t.Errorf("rows = %v", tbl.Rows)
	}

	if len(images) != 2 || images[0].Path != "category.png" || images[1].Path != "overview.png" {
		t.Fatalf("unexpected images %+v", images)
	}
	for _, img := range images {
		if img.X != 15 || img.Width != 180 {
			t.Errorf("image placement %+v", img)
		}
	}

	if len(paragraphs) != 5 || paragraphs[4].Text != "I spend more than I think." {
		t.Fatalf("unexpected reflections %+v", paragraphs)
	}

	// Reflections are the tail of the document, separated by blank lines.
	tail := doc.Blocks[len(doc.Blocks)-9:]
	for i, b := range tail {
		_, isSpacer := b.(Spacer)
		if (i%2 == 1) != isSpacer {
			t.Fatalf("block %d of reflection tail is %T", i, b)
		}
	}
}

func TestLayoutWithoutExpenseRatio(t *testing.T) {
	in := scenario(t)
	in.ShowExpenseRatio = false
	for _, line := range texts(Layout(in)) {
		if strings.HasPrefix(line, "Expense Ratio") {
			t.Fatalf("expense ratio should be omitted")
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Asha Rao", "Asha_Rao_Budget_Submission.pdf"},
		{"  Asha  Rao ", "Asha__Rao_Budget_Submission.pdf"},
		{"Ravi\tK", "Ravi_K_Budget_Submission.pdf"},
		{"../etc", ".._etc_Budget_Submission.pdf"},
		{"Asha", "Asha_Budget_Submission.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(tt.in); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 90, 45))
	for x := 0; x < 90; x++ {
		img.Set(x, 20, color.Black)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	in := scenario(t)
	in.CategoryChart = writePNG(t, dir, "category.png")
	in.OverviewChart = writePNG(t, dir, "overview.png")

	var buf bytes.Buffer
	if err := Render(Layout(in), fonts.Set{}, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRenderLongReflectionsBreakPages(t *testing.T) {
	dir := t.TempDir()
	in := scenario(t)
	in.CategoryChart = writePNG(t, dir, "category.png")
	in.OverviewChart = writePNG(t, dir, "overview.png")
	for i := range in.Record.Reflections {
		in.Record.Reflections[i] = strings.Repeat("A long answer that keeps going. ", 40)
	}

	var buf bytes.Buffer
	if err := Render(Layout(in), fonts.Set{}, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	m := regexp.MustCompile(`/Count (\d+)`).FindSubmatch(buf.Bytes())
	if m == nil {
		t.Fatal("page tree not found")
	}
	if pages, _ := strconv.Atoi(string(m[1])); pages < 2 {
		t.Errorf("expected content to flow onto additional pages, got %d page(s)", pages)
	}
}

func TestRenderMissingImageWritesNothing(t *testing.T) {
	in := scenario(t)
	in.CategoryChart = filepath.Join(t.TempDir(), "missing.png")
	in.OverviewChart = in.CategoryChart

	var buf bytes.Buffer
	if err := Render(Layout(in), fonts.Set{}, &buf); err == nil {
		t.Fatal("expected error for missing chart image")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %d bytes", buf.Len())
	}
}

func testdataFonts(t *testing.T) fonts.Set {
	t.Helper()
	regular, err := os.ReadFile(filepath.Join("testdata", "DejaVuSansCondensed.ttf"))
	if err != nil {
		t.Fatal(err)
	}
	bold, err := os.ReadFile(filepath.Join("testdata", "DejaVuSansCondensed-Bold.ttf"))
	if err != nil {
		t.Fatal(err)
	}
	return fonts.Set{Family: fonts.Family, Regular: regular, Bold: bold}
}

func renderBytes(t *testing.T, in LayoutInput, set fonts.Set) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(Layout(in), set, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.Bytes()
}

func TestRenderEmbeddedFonts(t *testing.T) {
	full := testdataFonts(t)
	lean := fonts.Set{Family: fonts.Family, Regular: full.Regular, Bold: full.Regular}

	tests := []struct {
		name string
		set  fonts.Set
	}{
		{"regular and bold", full},
		{"single weight", lean},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := scenario(t)
			in.CategoryChart = writePNG(t, dir, "category.png")
			in.OverviewChart = writePNG(t, dir, "overview.png")

			first := renderBytes(t, in, tt.set)
			second := renderBytes(t, in, tt.set)

			if !bytes.HasPrefix(first, []byte("%PDF-")) {
				t.Fatalf("output is not a PDF")
			}
			if !bytes.Contains(first, []byte("/FontFile2")) {
				t.Errorf("TrueType font was not embedded")
			}
			if bytes.Contains(first, []byte("/Helvetica")) {
				t.Errorf("fallback font used despite a font set")
			}
			if !bytes.Equal(first, second) {
				t.Errorf("rendering the same document twice produced different bytes")
			}
		})
	}
}

func TestRenderEmbeddedFontsBreakPages(t *testing.T) {
	dir := t.TempDir()
	in := scenario(t)
	in.CategoryChart = writePNG(t, dir, "category.png")
	in.OverviewChart = writePNG(t, dir, "overview.png")
	for i := range in.Record.Reflections {
		in.Record.Reflections[i] = strings.Repeat("₹ spent on chai adds up. ", 60)
	}

	out := renderBytes(t, in, testdataFonts(t))
	m := regexp.MustCompile(`/Count (\d+)`).FindSubmatch(out)
	if m == nil {
		t.Fatal("page tree not found")
	}
	if pages, _ := strconv.Atoi(string(m[1])); pages < 2 {
		t.Errorf("expected additional pages, got %d", pages)
	}
}
