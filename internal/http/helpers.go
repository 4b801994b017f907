package http

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"budgeting/internal/core"
)

// sanitizeInput removes control characters except tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// pngDataURI embeds PNG bytes for an <img src>.
func pngDataURI(png []byte) template.URL {
	var b bytes.Buffer
	b.WriteString("data:image/png;base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(png))
	return template.URL(b.String())
}

// budgetKey identifies a budget for the chart cache.
func budgetKey(in core.BudgetInput) string {
	var b strings.Builder
	b.WriteString(string(in.Period))
	for _, m := range append([]core.Money{in.Income, in.SavingsGoal}, in.Expenses[:]...) {
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(m.Cents, 10))
	}
	return b.String()
}

func templateFuncs(symbol string) template.FuncMap {
	return template.FuncMap{
		"amount":  func(m core.Money) string { return core.FormatAmount(symbol, m) },
		"percent": core.FormatPercent,
		// label keeps the period in its own span so the page can relabel it.
		"label": func(p core.Period, what string) template.HTML {
			return template.HTML(`<span data-period-label>` + template.HTMLEscapeString(string(p)) + `</span> ` +
				template.HTMLEscapeString(what+" ("+symbol+")"))
		},
	}
}
