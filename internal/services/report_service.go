package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"budgeting/internal/chart"
	"budgeting/internal/core"
	"budgeting/internal/fonts"
	"budgeting/internal/log"
	"budgeting/internal/metrics"
	"budgeting/internal/report"
)

// ChartRenderer produces the two report charts as temporary files.
type ChartRenderer interface {
	RenderCategoryChart(in core.BudgetInput) (chart.Image, error)
	RenderSavingsVsExpensesChart(s core.BudgetSummary) (chart.Image, error)
}

type ReportOptions struct {
	OutputDir        string
	CurrencySymbol   string
	ShowExpenseRatio bool
	// Now supplies the submission date. Defaults to time.Now.
	Now    func() time.Time
	Logger *log.Logger
}

// ReportService runs the full report pipeline for one submission at a time.
// Concurrent calls are safe: every call writes to its own uuid-named file.
type ReportService struct {
	fonts     fonts.Provisioner
	charts    ChartRenderer
	outDir    string
	symbol    string
	showRatio bool
	now       func() time.Time
	logger    *log.Logger
}

func NewReportService(provisioner fonts.Provisioner, charts ChartRenderer, opts ReportOptions) *ReportService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &ReportService{
		fonts:     provisioner,
		charts:    charts,
		outDir:    opts.OutputDir,
		symbol:    opts.CurrencySymbol,
		showRatio: opts.ShowExpenseRatio,
		now:       now,
		logger:    logger.WithComponent(log.ComponentReport),
	}
}

// GenerateRequest is everything the form collects.
type GenerateRequest struct {
	StudentName string
	Course      string
	Input       core.BudgetInput
	Reflections core.ReflectionAnswers
}

// Generate validates the request, provisions fonts, renders both charts and
// writes the PDF. Validation failures return before any font or chart work.
// On any error no file is left in the output directory.
func (s *ReportService) Generate(ctx context.Context, req GenerateRequest) (_ *Artifact, err error) {
	start := time.Now()
	defer func() {
		metrics.ReportsGenerated.WithLabelValues(resultLabel(err)).Inc()
		if err == nil {
			metrics.ReportDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if err := req.Input.Validate(); err != nil {
		return nil, err
	}
	summary := core.ComputeSummary(req.Input)
	rec, err := core.NewSubmissionRecord(req.StudentName, req.Course, s.now(), summary, req.Reflections)
	if err != nil {
		return nil, err
	}

	fields := log.NewFields().
		WithSubmission(rec.StudentName, rec.Course, string(rec.Summary.Period)).
		WithBudget(rec.Summary.Income.Cents, rec.Summary.TotalExpenses.Cents)
	logger := s.logger.With(fields.ToSlice()...)

	set, err := s.fonts.Provision(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "font provisioning failed", log.FieldOperation, log.OpProvision, log.FieldFontMode, s.fonts.Mode(), log.FieldError, err)
		return nil, fmt.Errorf("provision fonts: %w", err)
	}
	if err := chart.UseFonts(set); err != nil {
		logger.WarnContext(ctx, "charts fall back to default fonts", log.FieldError, err)
	}

	images, err := s.renderCharts(req.Input, summary)
	defer func() {
		for _, img := range images {
			if rmErr := img.Remove(); rmErr != nil {
				logger.Warn("failed to remove chart file", log.FieldArtifact, img.Path, log.FieldError, rmErr)
			}
		}
	}()
	if err != nil {
		logger.ErrorContext(ctx, "chart rendering failed", log.FieldOperation, log.OpRender, log.FieldError, err)
		return nil, fmt.Errorf("render charts: %w", err)
	}

	doc := report.Layout(report.LayoutInput{
		Record:           rec,
		Input:            req.Input,
		CategoryChart:    images[0].Path,
		OverviewChart:    images[1].Path,
		CurrencySymbol:   s.symbol,
		ShowExpenseRatio: s.showRatio,
	})

	artifact, err := s.write(doc, set, report.Filename(rec.StudentName))
	if err != nil {
		logger.ErrorContext(ctx, "report composition failed", log.FieldOperation, log.OpCompose, log.FieldError, err)
		return nil, err
	}

	metrics.ReportBytes.Observe(float64(artifact.Size))
	logger.InfoContext(ctx, "report generated",
		append(log.NewFields().WithArtifact(artifact.Path, artifact.Filename, artifact.Size).ToSlice(),
			log.FieldDuration, time.Since(start).Milliseconds())...)
	return artifact, nil
}

// renderCharts draws both charts concurrently. Images that were produced are
// returned even on error so the caller can remove them.
func (s *ReportService) renderCharts(in core.BudgetInput, summary core.BudgetSummary) ([]chart.Image, error) {
	var category, overview chart.Image
	var g errgroup.Group
	g.Go(func() error {
		var err error
		category, err = s.charts.RenderCategoryChart(in)
		return err
	})
	g.Go(func() error {
		var err error
		overview, err = s.charts.RenderSavingsVsExpensesChart(summary)
		return err
	})
	err := g.Wait()
	return []chart.Image{category, overview}, err
}

// write renders into <uuid>.pdf.part and renames it to <uuid>.pdf once complete.
func (s *ReportService) write(doc report.Document, set fonts.Set, filename string) (*Artifact, error) {
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	final := filepath.Join(s.outDir, uuid.NewString()+".pdf")
	part := final + ".part"

	f, err := os.OpenFile(part, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	if err := report.Render(doc, set, f); err != nil {
		f.Close()
		os.Remove(part)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return nil, fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(part, final); err != nil {
		os.Remove(part)
		return nil, fmt.Errorf("finalize report file: %w", err)
	}

	info, err := os.Stat(final)
	if err != nil {
		os.Remove(final)
		return nil, fmt.Errorf("stat report file: %w", err)
	}
	return &Artifact{Path: final, Filename: filename, Size: info.Size()}, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, core.ErrValidation):
		return metrics.ResultValidationError
	case errors.Is(err, fonts.ErrFontUnavailable):
		return metrics.ResultFontError
	default:
		return metrics.ResultError
	}
}
