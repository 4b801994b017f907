package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"budgeting/internal/fonts"
)

// fallbackFamily is used when no font set is supplied. Core fonts only cover
// cp1252, so text is translated and glyphs outside it are lost.
const fallbackFamily = "Helvetica"

// Render draws doc as an A4 portrait PDF into w. Output starts only after
// every block was drawn.
func Render(doc Document, set fonts.Set, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, PageBreakMargin)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.Date)

	family := fallbackFamily
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if !set.IsZero() {
		family = set.Family
		tr = func(s string) string { return s }
		pdf.AddUTF8FontFromBytes(family, "", set.Regular)
		bold := set.Bold
		if len(bold) == 0 {
			bold = set.Regular
		}
		pdf.AddUTF8FontFromBytes(family, "B", bold)
	}
	utf8 := !set.IsZero()
	pdf.SetTitle(tr(doc.Title), utf8)
	pdf.SetAuthor(tr(doc.Author), utf8)
	pdf.SetCreator("budgeting", false)

	setFont := func(st Style) {
		style := ""
		if st.Bold {
			style = "B"
		}
		pdf.SetFont(family, style, st.Size)
	}

	pdf.AddPage()
	for _, block := range doc.Blocks {
		if pdf.Err() {
			break
		}
		switch b := block.(type) {
		case Text:
			setFont(b.Style)
			pdf.CellFormat(0, b.Height, tr(b.Text), "", 1, "L", false, 0, "")
		case Spacer:
			pdf.Ln(b.Height)
		case Table:
			setFont(Style{Bold: true, Size: bodySize})
			pdf.CellFormat(b.Widths[0], b.RowHeight, tr(b.Header[0]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(b.Widths[1], b.RowHeight, tr(b.Header[1]), "1", 1, "L", false, 0, "")
			setFont(Style{Size: bodySize})
			for _, row := range b.Rows {
				pdf.CellFormat(b.Widths[0], b.RowHeight, tr(row[0]), "1", 0, "L", false, 0, "")
				pdf.CellFormat(b.Widths[1], b.RowHeight, tr(row[1]), "1", 1, "L", false, 0, "")
			}
		case Image:
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.ImageOptions(b.Path, b.X, 0, b.Width, 0, true, opts, 0, "")
		case Paragraph:
			setFont(b.Style)
			pdf.MultiCell(0, b.LineHeight, tr(b.Text), "", "L", false)
		default:
			return fmt.Errorf("unsupported block %T", block)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}
