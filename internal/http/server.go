package http

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"budgeting/internal/cache"
	"budgeting/internal/core"
	"budgeting/internal/fonts"
	"budgeting/internal/log"
	"budgeting/internal/middleware/ratelimit"
	"budgeting/internal/middleware/security"
	"budgeting/internal/middleware/trace"
	"budgeting/internal/services"
	appweb "budgeting/web"
)

// ReportGenerator runs the PDF pipeline for one submission.
type ReportGenerator interface {
	Generate(ctx context.Context, req services.GenerateRequest) (*services.Artifact, error)
}

// DashboardCharts draws the live dashboard charts as PNG.
type DashboardCharts interface {
	CategoryPNG(w io.Writer, in core.BudgetInput) error
	OverviewPNG(w io.Writer, s core.BudgetSummary) error
}

// Options configures NewServer. Reports, Charts and Fonts are required.
type Options struct {
	Addr             string
	Reports          ReportGenerator
	Charts           DashboardCharts
	Fonts            fonts.Provisioner
	CurrencySymbol   string
	ShowExpenseRatio bool

	// RateLimitPerMinute limits report generation per client.
	RateLimitPerMinute int
	// SummaryRateLimitPerMinute limits dashboard refreshes, counted separately.
	SummaryRateLimitPerMinute int

	ChartCacheSize int
	ChartCacheTTL  time.Duration

	// DownloadTTL bounds how long a generated report waits to be fetched.
	DownloadTTL    time.Duration
	MetricsEnabled bool
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	reports   ReportGenerator
	charts    DashboardCharts
	fonts     fonts.Provisioner

	chartCache   *cache.LRUCache[dashboardCharts]
	downloads    *downloadStore
	cacheManager *cache.Manager
	reportLimit  *ratelimit.Limiter
	summaryLimit *ratelimit.Limiter
	clientIP     *security.ClientIP

	symbol       string
	showRatio    bool
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "₹"
	}
	if opts.ChartCacheTTL <= 0 {
		opts.ChartCacheTTL = 5 * time.Minute
	}
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = 2 * time.Minute
	}

	t, err := template.New("").Funcs(templateFuncs(opts.CurrencySymbol)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	clientIP, err := security.NewClientIP(security.DefaultTrustedProxies...)
	if err != nil {
		return nil, err
	}

	reportConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		reportConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}
	reportConfig.Logger = logger

	summaryConfig := ratelimit.DefaultConfig()
	summaryConfig.RequestsPerMinute = 120
	if opts.SummaryRateLimitPerMinute > 0 {
		summaryConfig.RequestsPerMinute = opts.SummaryRateLimitPerMinute
	}
	summaryConfig.Logger = logger

	s := &Server{
		Server:       http.Server{Addr: opts.Addr, ReadHeaderTimeout: 10 * time.Second},
		templates:    t,
		reports:      opts.Reports,
		charts:       opts.Charts,
		fonts:        opts.Fonts,
		chartCache:   cache.NewLRUCache[dashboardCharts](opts.ChartCacheSize, opts.ChartCacheTTL),
		downloads:    newDownloadStore(opts.DownloadTTL, logger),
		cacheManager: cache.NewManager(logger),
		reportLimit:  ratelimit.NewLimiter(reportConfig),
		summaryLimit: ratelimit.NewLimiter(summaryConfig),
		clientIP:     clientIP,
		symbol:       opts.CurrencySymbol,
		showRatio:    opts.ShowExpenseRatio,
		logger:       logger.WithComponent(log.ComponentHTTP),
	}

	s.cacheManager.Register(s.chartCache)
	s.cacheManager.Register(s.downloads)
	s.cacheManager.StartCleanup(time.Minute)

	s.Handler = s.routes(opts.MetricsEnabled)
	return s, nil
}

func (s *Server) routes(metricsEnabled bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(trace.NewMiddleware(s.logger, s.clientIP.Extract).Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/", s.handleIndex)
	r.With(s.summaryLimit.Middleware(s.clientIP.Extract, tooManyRequests, http.MethodPost)).
		Post("/ui/summary", s.handleSummary)

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.With(s.reportLimit.Middleware(s.clientIP.Extract, tooManyRequests, http.MethodPost)).
			Post("/report", s.handleGenerateReport)
		r.Get("/report/{token}", s.handleDownloadReport)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("failed to mount embedded static FS", log.FieldError, err)
	}
	return r
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	TooManyRequestsError("Too many requests. Please wait a moment and try again.").Write(w)
}

// Shutdown stops background cleanup, drops pending downloads and shuts the
// listener down. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.reportLimit.Stop()
		s.summaryLimit.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		s.downloads.Clear()
	})
	return shutdownErr
}
