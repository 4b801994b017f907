package http

import (
	"encoding/json"
	"net/http"
	"time"

	"budgeting/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports whether a report could be generated right now.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.fonts == nil {
		checks["fonts"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.fonts.Ready(); err != nil {
		checks["fonts"] = map[string]interface{}{
			"mode":   string(s.fonts.Mode()),
			"status": "failed: " + err.Error(),
		}
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["fonts"] = map[string]interface{}{
			"mode":   string(s.fonts.Mode()),
			"status": "ok",
		}
	}

	stats := s.chartCache.Stats()
	checks["chart_cache"] = map[string]interface{}{
		"entries": s.chartCache.Size(),
		"hits":    stats.Hits,
		"misses":  stats.Misses,
		"status":  "ok",
	}
	checks["pending_downloads"] = s.downloads.Size()
	checks["rate_limiter"] = map[string]interface{}{
		"report_clients":  s.reportLimit.ActiveClients(),
		"summary_clients": s.summaryLimit.ActiveClients(),
		"status":          "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.FromContext(r.Context()).Warn("failed to encode readiness response", log.FieldError, err)
	}
}
