package http

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"budgeting/internal/core"
	"budgeting/internal/log"
)

// dashboardCharts are the two dashboard charts as data URIs, cached per budget.
type dashboardCharts struct {
	Category template.URL
	Overview template.URL
}

type categoryField struct {
	Field string
	Name  string
}

type promptField struct {
	Field  string
	Prompt string
}

type indexData struct {
	Periods    []core.Period
	Period     core.Period
	Categories []categoryField
	Prompts    []promptField
	Symbol     string
}

type summaryData struct {
	Summary   core.BudgetSummary
	Insights  []core.Insight
	Charts    *dashboardCharts
	ShowRatio bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Periods: []core.Period{core.Monthly, core.Yearly},
		Period:  core.Monthly,
		Symbol:  s.symbol,
	}
	for _, c := range core.Categories {
		data.Categories = append(data.Categories, categoryField{Field: expenseField(c), Name: c.String()})
	}
	for i, p := range core.ReflectionPrompts {
		data.Prompts = append(data.Prompts, promptField{Field: reflectionField(i), Prompt: p})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "index template execution failed",
			log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// handleSummary recomputes the dashboard partial from the current form state.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(w, r); errResp != nil {
		errResp.Write(w)
		return
	}

	in, err := ParseBudgetInput(r.Form)
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	summary := core.ComputeSummary(in)
	data := summaryData{
		Summary:   summary,
		Insights:  core.Insights(summary, s.symbol),
		ShowRatio: s.showRatio,
	}

	charts, err := s.chartCache.GetOrLoad(budgetKey(in), func() (dashboardCharts, error) {
		return s.renderDashboardCharts(in, summary)
	})
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "dashboard charts unavailable",
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
	} else {
		data.Charts = &charts
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "summary.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "summary template execution failed",
			log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate)
		InternalServerError("Could not render the summary").Write(w)
		return
	}
	NewHTMXResponse().Trigger("summary:updated", nil).Header("Content-Type", "text/html; charset=utf-8").Body(buf.Bytes()).Write(w)
}

func (s *Server) renderDashboardCharts(in core.BudgetInput, summary core.BudgetSummary) (dashboardCharts, error) {
	var category, overview bytes.Buffer
	var g errgroup.Group
	g.Go(func() error { return s.charts.CategoryPNG(&category, in) })
	g.Go(func() error { return s.charts.OverviewPNG(&overview, summary) })
	if err := g.Wait(); err != nil {
		return dashboardCharts{}, err
	}
	return dashboardCharts{
		Category: pngDataURI(category.Bytes()),
		Overview: pngDataURI(overview.Bytes()),
	}, nil
}

// validationMessage strips the generic prefix so the user sees only the cause.
func validationMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, core.ErrValidation) {
		msg = strings.Replace(msg, core.ErrValidation.Error()+": ", "", 1)
	}
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
