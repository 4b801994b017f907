// Package chart draws the two budget bar charts as PNG images.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"budgeting/internal/core"
	"budgeting/internal/log"
	"budgeting/internal/metrics"
)

// Chart kinds, used for temp file names and metrics.
const (
	KindCategory = "category"
	KindOverview = "overview"
)

const (
	width  = 6 * vg.Inch
	height = 3 * vg.Inch
	dpi    = 150
)

var (
	categoryColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

	overviewLabels = []string{"Needs", "Wants", "Other Expenses", "Savings"}
	overviewColors = []color.Color{
		color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
		color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
		color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
		color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	}
)

// Image is a chart written to a temporary PNG file. The caller owns the file.
type Image struct {
	Kind string
	Path string
}

// Remove deletes the backing file. Removing twice is not an error.
func (i Image) Remove() error {
	if i.Path == "" {
		return nil
	}
	if err := os.Remove(i.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type Options struct {
	// Dir receives temporary chart files. Empty means os.TempDir().
	Dir            string
	CurrencySymbol string
	Logger         *log.Logger
}

// Renderer draws charts with fixed size and styling.
type Renderer struct {
	dir    string
	symbol string
	logger *log.Logger
}

func NewRenderer(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Renderer{
		dir:    opts.Dir,
		symbol: opts.CurrencySymbol,
		logger: logger.WithComponent(log.ComponentChart),
	}
}

// RenderCategoryChart writes one bar per category, in declared order, to a temp file.
func (r *Renderer) RenderCategoryChart(in core.BudgetInput) (Image, error) {
	return r.toFile(KindCategory, func(w io.Writer) error { return r.CategoryPNG(w, in) })
}

// RenderSavingsVsExpensesChart writes the needs/wants/other/savings chart to a temp file.
func (r *Renderer) RenderSavingsVsExpensesChart(s core.BudgetSummary) (Image, error) {
	return r.toFile(KindOverview, func(w io.Writer) error { return r.OverviewPNG(w, s) })
}

// CategoryPNG encodes the category chart as PNG into w.
func (r *Renderer) CategoryPNG(w io.Writer, in core.BudgetInput) error {
	fontMu.RLock()
	defer fontMu.RUnlock()

	p := r.newPlot("Expense Distribution")

	names := make([]string, len(core.Categories))
	values := make(plotter.Values, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = c.String()
		values[i] = in.Expenses[c].Float()
	}

	bars, err := plotter.NewBarChart(values, vg.Points(22))
	if err != nil {
		return fmt.Errorf("category bars: %w", err)
	}
	bars.Color = categoryColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)

	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Max = headroom(maxOf(values), 1.05)

	return r.encode(w, p, KindCategory)
}

// OverviewPNG encodes the savings-vs-expenses chart as PNG into w.
// Negative savings are drawn as zero.
func (r *Renderer) OverviewPNG(w io.Writer, s core.BudgetSummary) error {
	fontMu.RLock()
	defer fontMu.RUnlock()

	p := r.newPlot("Savings vs Expenses (Needs / Wants)")

	amounts := []core.Money{s.Needs, s.Wants, s.Other, s.Savings.Max(core.Money{})}
	values := make(plotter.Values, len(amounts))
	for i, m := range amounts {
		values[i] = m.Float()
	}

	for i, v := range values {
		bar, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(40))
		if err != nil {
			return fmt.Errorf("%s bar: %w", overviewLabels[i], err)
		}
		bar.XMin = float64(i)
		bar.Color = overviewColors[i]
		bar.LineStyle.Width = 0
		p.Add(bar)
	}
	p.NominalX(overviewLabels...)

	top := maxOf(values)
	xys := make(plotter.XYs, len(values))
	texts := make([]string, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v + top*0.02}
		texts[i] = core.FormatAmount(r.symbol, amounts[i])
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return fmt.Errorf("value labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YBottom
		labels.TextStyle[i].Font.Size = vg.Points(9)
	}
	p.Add(labels)
	p.Y.Max = headroom(top, 1.15)

	return r.encode(w, p, KindOverview)
}

func (r *Renderer) newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = fmt.Sprintf("Amount (%s)", r.symbol)
	p.Y.Min = 0
	p.Y.Tick.Marker = commaTicks{}
	p.X.Tick.Length = 0
	return p
}

func (r *Renderer) encode(w io.Writer, p *plot.Plot, kind string) error {
	c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encode %s chart: %w", kind, err)
	}
	metrics.ChartsRendered.WithLabelValues(kind).Inc()
	return nil
}

func (r *Renderer) toFile(kind string, write func(io.Writer) error) (Image, error) {
	f, err := os.CreateTemp(r.dir, "chart-"+kind+"-*.png")
	if err != nil {
		return Image{}, fmt.Errorf("create %s chart file: %w", kind, err)
	}
	img := Image{Kind: kind, Path: f.Name()}

	if err := write(f); err != nil {
		f.Close()
		img.Remove()
		return Image{}, err
	}
	if err := f.Close(); err != nil {
		img.Remove()
		return Image{}, fmt.Errorf("close %s chart file: %w", kind, err)
	}
	r.logger.Debug("chart written", log.FieldChart, kind, log.FieldArtifact, img.Path)
	return img, nil
}

// commaTicks labels the amount axis with thousands separators.
type commaTicks struct{}

func (commaTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = humanize.Comma(int64(math.Round(ticks[i].Value)))
		}
	}
	return ticks
}

func maxOf(vs plotter.Values) float64 {
	m := 0.0
	for _, v := range vs {
		m = math.Max(m, v)
	}
	return m
}

// headroom leaves room above the tallest bar. An all-zero chart gets a unit axis.
func headroom(top, factor float64) float64 {
	if top <= 0 {
		return 1
	}
	return top * factor
}
