// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "budgeting"

// Result label values.
const (
	ResultOK              = "ok"
	ResultValidationError = "validation_error"
	ResultFontError       = "font_error"
	ResultError           = "error"
	ResultHit             = "hit"
	ResultMiss            = "miss"
)

// ─── Reports ────────────────────────────────────────────────────────────────

// ReportsGenerated counts report generations by outcome.
var ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "report",
	Name:      "generated_total",
	Help:      "Report generations by result.",
}, []string{"result"})

// ReportDuration tracks end-to-end generation time for successful reports.
var ReportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "report",
	Name:      "duration_seconds",
	Help:      "Time to validate, provision fonts, render charts and compose a report.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
})

// ReportBytes tracks the size of produced PDF files.
var ReportBytes = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "report",
	Name:      "size_bytes",
	Help:      "Size of generated PDF reports.",
	Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 8),
})

// ─── Fonts ──────────────────────────────────────────────────────────────────

// FontFetches counts on-demand font downloads by outcome.
var FontFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "fonts",
	Name:      "fetches_total",
	Help:      "On-demand font downloads by result.",
}, []string{"result"})

// ─── Charts ─────────────────────────────────────────────────────────────────

// ChartsRendered counts rendered chart images by kind.
var ChartsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "chart",
	Name:      "rendered_total",
	Help:      "Chart images rendered, by chart kind.",
}, []string{"kind"})

// ChartCacheLookups counts dashboard chart cache lookups by hit or miss.
var ChartCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "cache",
	Name:      "lookups_total",
	Help:      "Dashboard chart cache lookups by result.",
}, []string{"result"})

// ChartCacheEvictions counts entries removed by TTL cleanup.
var ChartCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "cache",
	Name:      "expired_total",
	Help:      "Dashboard chart cache entries removed after expiring.",
})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts completed requests by method and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Completed HTTP requests by method and status code.",
}, []string{"method", "code"})

// HTTPDuration tracks request latency.
var HTTPDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
})

// RateLimited counts requests rejected by the rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})
