package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"budgeting/internal/chart"
	"budgeting/internal/core"
	"budgeting/internal/fonts"
)

type countingProvisioner struct {
	calls int32
	err   error
}

func (p *countingProvisioner) Provision(context.Context) (fonts.Set, error) {
	atomic.AddInt32(&p.calls, 1)
	return fonts.Set{}, p.err
}

func (p *countingProvisioner) Mode() fonts.Mode { return fonts.ModeBundled }
func (p *countingProvisioner) Ready() error     { return p.err }

// fakeCharts writes small PNGs and remembers every path it handed out.
type fakeCharts struct {
	dir        string
	failKind   string
	mu         sync.Mutex
	paths      []string
	categories int32
}

func (c *fakeCharts) write(kind string) (chart.Image, error) {
	if kind == c.failKind {
		return chart.Image{}, errors.New("boom")
	}
	f, err := os.CreateTemp(c.dir, kind+"-*.png")
	if err != nil {
		return chart.Image{}, err
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 60, 30))); err != nil {
		return chart.Image{}, err
	}
	c.mu.Lock()
	c.paths = append(c.paths, f.Name())
	c.mu.Unlock()
	return chart.Image{Kind: kind, Path: f.Name()}, nil
}

func (c *fakeCharts) RenderCategoryChart(core.BudgetInput) (chart.Image, error) {
	atomic.AddInt32(&c.categories, 1)
	return c.write(chart.KindCategory)
}

func (c *fakeCharts) RenderSavingsVsExpensesChart(core.BudgetSummary) (chart.Image, error) {
	return c.write(chart.KindOverview)
}

func newTestService(t *testing.T, p fonts.Provisioner) (*ReportService, *fakeCharts, string) {
	t.Helper()
	out := t.TempDir()
	charts := &fakeCharts{dir: t.TempDir()}
	svc := NewReportService(p, charts, ReportOptions{
		OutputDir:        out,
		CurrencySymbol:   "₹",
		ShowExpenseRatio: true,
		Now:              func() time.Time { return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC) },
	})
	return svc, charts, out
}

func validRequest() GenerateRequest {
	in := core.BudgetInput{Period: core.Monthly, Income: core.Units(50000)}
	in.Expenses[core.Housing] = core.Units(15000)
	in.Expenses[core.Food] = core.Units(8000)
	return GenerateRequest{
		StudentName: "Asha Rao",
		Course:      "FIN101",
		Input:       in,
		Reflections: core.ReflectionAnswers{"one", "two", "three", "four", "five"},
	}
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func TestGenerate_Success(t *testing.T) {
	p := &countingProvisioner{}
	svc, charts, out := newTestService(t, p)

	art, err := svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if art.Filename != "Asha_Rao_Budget_Submission.pdf" {
		t.Errorf("unexpected filename %q", art.Filename)
	}
	if filepath.Dir(art.Path) != out || !strings.HasSuffix(art.Path, ".pdf") {
		t.Errorf("unexpected artifact path %q", art.Path)
	}

	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) || int64(len(data)) != art.Size {
		t.Fatalf("artifact is not a complete PDF (size %d, recorded %d)", len(data), art.Size)
	}

	for _, name := range dirEntries(t, out) {
		if strings.HasSuffix(name, ".part") {
			t.Errorf("partial file %s left behind", name)
		}
	}
	for _, path := range charts.paths {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("chart file %s was not removed", path)
		}
	}
	if p.calls != 1 {
		t.Errorf("expected one provisioning call, got %d", p.calls)
	}
}

func TestGenerate_ValidationSkipsProvisioning(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GenerateRequest)
		want   error
	}{
		{"empty name", func(r *GenerateRequest) { r.StudentName = "  " }, core.ErrEmptyStudentName},
		{"empty course", func(r *GenerateRequest) { r.Course = "" }, core.ErrEmptyCourse},
		{"negative expense", func(r *GenerateRequest) { r.Input.Expenses[core.Food] = core.Money{Cents: -1} }, core.ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingProvisioner{}
			svc, charts, out := newTestService(t, p)
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Generate(context.Background(), req)
			if !errors.Is(err, tt.want) || !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if p.calls != 0 {
				t.Errorf("font provisioning must not run on validation failure")
			}
			if charts.categories != 0 {
				t.Errorf("charts must not render on validation failure")
			}
			if n := len(dirEntries(t, out)); n != 0 {
				t.Errorf("expected empty output dir, found %d entries", n)
			}
		})
	}
}

func TestGenerate_MissingBundledFontWritesNothing(t *testing.T) {
	p := fonts.NewBundledProvisioner(t.TempDir(), nil)
	svc, charts, out := newTestService(t, p)

	_, err := svc.Generate(context.Background(), validRequest())
	var missing *fonts.MissingFontAssetError
	if !errors.As(err, &missing) || !errors.Is(err, fonts.ErrFontUnavailable) {
		t.Fatalf("expected missing font error, got %v", err)
	}
	if n := len(dirEntries(t, out)); n != 0 {
		t.Fatalf("expected no output, found %d entries", n)
	}
	if charts.categories != 0 {
		t.Errorf("charts must not render without fonts")
	}
}

func TestGenerate_ChartFailureCleansUp(t *testing.T) {
	svc, charts, out := newTestService(t, &countingProvisioner{})
	charts.failKind = chart.KindOverview

	if _, err := svc.Generate(context.Background(), validRequest()); err == nil {
		t.Fatal("expected chart error")
	}
	if n := len(dirEntries(t, out)); n != 0 {
		t.Fatalf("expected no output, found %d entries", n)
	}
	for _, path := range charts.paths {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("chart file %s was not removed", path)
		}
	}
}

func TestGenerate_SameNameDoesNotCollide(t *testing.T) {
	svc, _, _ := newTestService(t, &countingProvisioner{})

	var wg sync.WaitGroup
	arts := make([]*Artifact, 4)
	errs := make([]error, 4)
	for i := range arts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			arts[i], errs[i] = svc.Generate(context.Background(), validRequest())
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, a := range arts {
		if errs[i] != nil {
			t.Fatalf("Generate %d: %v", i, errs[i])
		}
		if seen[a.Path] {
			t.Fatalf("duplicate artifact path %s", a.Path)
		}
		seen[a.Path] = true
	}
}

func TestArtifactPublishAndRemove(t *testing.T) {
	svc, _, _ := newTestService(t, &countingProvisioner{})
	art, err := svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "out")
	path, err := art.Publish(dest)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if path != filepath.Join(dest, "Asha_Rao_Budget_Submission.pdf") || art.Path != path {
		t.Fatalf("unexpected published path %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("published file missing: %v", err)
	}

	if err := art.Remove(); err != nil {
		t.Fatal(err)
	}
	if err := art.Remove(); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
}

func copyTestdataFont(t *testing.T, src, dir, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "report", "testdata", src))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
	return data
}

func TestGenerate_WithProvisionedFonts(t *testing.T) {
	bundledDir := t.TempDir()
	copyTestdataFont(t, "DejaVuSansCondensed.ttf", bundledDir, fonts.RegularFile)
	copyTestdataFont(t, "DejaVuSansCondensed-Bold.ttf", bundledDir, fonts.BoldFile)

	regular, err := os.ReadFile(filepath.Join(bundledDir, fonts.RegularFile))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(regular)
	}))
	defer srv.Close()

	tests := []struct {
		name string
		p    fonts.Provisioner
	}{
		{"bundled", fonts.NewBundledProvisioner(bundledDir, nil)},
		{"fetch", fonts.NewFetchProvisioner(fonts.Options{Dir: t.TempDir(), URL: srv.URL, Timeout: 5 * time.Second})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t, tt.p)
			req := validRequest()
			req.Reflections[4] = "After this activity, I realized that ₹500 a week on snacks matters."

			art, err := svc.Generate(context.Background(), req)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			data, err := os.ReadFile(art.Path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Contains(data, []byte("/FontFile2")) {
				t.Errorf("report does not embed the provisioned font")
			}
		})
	}
}
