// Package report lays out and renders the one-page budget submission PDF.
//
// Layout turns a submission into an ordered list of blocks and is a pure
// function of its input. Render draws those blocks with fpdf, top to bottom,
// letting the automatic page break move overflowing blocks to a new page.
package report

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"budgeting/internal/core"
)

// Fixed geometry, in millimetres.
const (
	PageBreakMargin = 15.0

	lineHeight    = 8.0
	titleHeight   = 10.0
	categoryWidth = 110.0
	amountWidth   = 40.0
	imageX        = 15.0
	imageWidth    = 180.0
)

const (
	titleSize   = 14.0
	headingSize = 12.0
	bodySize    = 11.0
)

const (
	Title         = "Budgeting & Expense Tracker – Submission"
	DateLayout    = "02 January 2006"
	filenameTail  = "_Budget_Submission.pdf"
	reflectionGap = lineHeight
)

type Style struct {
	Bold bool
	Size float64
}

// Block is one element of a Document.
type Block interface {
	block()
}

// Text is a single full-width line.
type Text struct {
	Style  Style
	Height float64
	Text   string
}

// Spacer advances the cursor by Height.
type Spacer struct {
	Height float64
}

// Table is a bordered two-column table with a bold header row.
type Table struct {
	Widths    [2]float64
	RowHeight float64
	Header    [2]string
	Rows      [][2]string
}

// Image places a PNG at X scaled to Width, keeping its aspect ratio.
type Image struct {
	Path  string
	X     float64
	Width float64
}

// Paragraph is wrapped multi-line text.
type Paragraph struct {
	Style      Style
	LineHeight float64
	Text       string
}

func (Text) block()      {}
func (Spacer) block()    {}
func (Table) block()     {}
func (Image) block()     {}
func (Paragraph) block() {}

// Document is the finished layout. It is never mutated after Layout returns.
type Document struct {
	Title  string
	Author string
	Date   time.Time
	Blocks []Block
}

// LayoutInput carries a validated submission and the already-rendered charts.
type LayoutInput struct {
	Record           core.SubmissionRecord
	Input            core.BudgetInput
	CategoryChart    string
	OverviewChart    string
	CurrencySymbol   string
	ShowExpenseRatio bool
}

// Layout builds the report blocks in their fixed order.
func Layout(in LayoutInput) Document {
	rec := in.Record
	s := rec.Summary
	amount := func(m core.Money) string { return core.FormatAmount(in.CurrencySymbol, m) }

	var b []Block
	heading := func(text string) {
		b = append(b, Text{Style: Style{Bold: true, Size: headingSize}, Height: lineHeight, Text: text})
	}
	line := func(text string) {
		b = append(b, Text{Style: Style{Size: bodySize}, Height: lineHeight, Text: text})
	}
	space := func(h float64) {
		b = append(b, Spacer{Height: h})
	}

	b = append(b, Text{Style: Style{Bold: true, Size: titleSize}, Height: titleHeight, Text: Title})
	line("Name: " + rec.StudentName)
	line("Course: " + rec.Course)
	line("Date: " + rec.Date.Format(DateLayout))

	space(4)
	heading("Budget Summary")
	line(fmt.Sprintf("%s Income: %s", s.Period, amount(s.Income)))
	line("Expenses: " + amount(s.TotalExpenses))
	line("Savings: " + amount(s.Savings))
	line("Savings Rate: " + core.FormatPercent(s.SavingsRate))
	if in.ShowExpenseRatio {
		line("Expense Ratio: " + core.FormatPercent(s.ExpenseRatio))
	}

	space(4)
	heading("Expense Breakdown")
	space(2)
	table := Table{
		Widths:    [2]float64{categoryWidth, amountWidth},
		RowHeight: lineHeight,
		Header:    [2]string{"Category", fmt.Sprintf("Amount (%s)", in.CurrencySymbol)},
		Rows:      make([][2]string, 0, len(core.Categories)),
	}
	for _, c := range core.Categories {
		table.Rows = append(table.Rows, [2]string{c.String(), amount(in.Input.Expenses[c])})
	}
	b = append(b, table)
	space(4)

	heading("Expense Distribution")
	space(2)
	b = append(b, Image{Path: in.CategoryChart, X: imageX, Width: imageWidth})
	space(5)

	heading("Savings vs Expenses Overview")
	space(2)
	b = append(b, Image{Path: in.OverviewChart, X: imageX, Width: imageWidth})
	space(5)

	heading("Student Reflection")
	for i, answer := range rec.Reflections {
		if i > 0 {
			space(reflectionGap)
		}
		b = append(b, Paragraph{Style: Style{Size: bodySize}, LineHeight: lineHeight, Text: answer})
	}

	return Document{
		Title:  Title,
		Author: rec.StudentName,
		Date:   rec.Date,
		Blocks: b,
	}
}

// Filename derives the download name from the student's name, e.g.
// "Asha Rao" -> "Asha_Rao_Budget_Submission.pdf". Path separators are
// replaced as well so the name is always a single path element.
func Filename(student string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, strings.TrimSpace(student))
	return name + filenameTail
}
