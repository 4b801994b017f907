package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"budgeting/internal/core"
	"budgeting/internal/fonts"
	"budgeting/internal/log"
	"budgeting/internal/middleware/trace"
	"budgeting/internal/services"
)

// handleGenerateReport builds the PDF. htmx callers are redirected to a
// one-shot download URL; plain form posts receive the file directly.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(w, r); errResp != nil {
		errResp.Write(w)
		return
	}

	req, err := ParseGenerateRequest(r.Form)
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	artifact, err := s.reports.Generate(r.Context(), req)
	if err != nil {
		s.reportError(w, r, err)
		return
	}

	if isHTMX(r) {
		token := s.downloads.Put(artifact)
		NewHTMXResponse().
			Redirect("/report/" + token).
			TriggerReportReady(artifact.Filename, artifact.Size).
			TriggerSuccessNotification("Report ready: " + artifact.Filename).
			Write(w)
		return
	}

	s.streamReport(w, r, artifact)
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	artifact, ok := s.downloads.Take(chi.URLParam(r, "token"))
	if !ok {
		NotFoundError("This report is no longer available. Please generate it again.").Write(w)
		return
	}
	s.streamReport(w, r, artifact)
}

// streamReport sends the artifact as an attachment and deletes it afterwards.
func (s *Server) streamReport(w http.ResponseWriter, r *http.Request, artifact *services.Artifact) {
	logger := log.FromContext(r.Context())
	defer func() {
		if err := artifact.Remove(); err != nil {
			logger.Warn("failed to remove report", log.FieldArtifact, artifact.Path, log.FieldError, err)
		}
	}()

	f, err := artifact.Open()
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to open report", log.FieldArtifact, artifact.Path, log.FieldError, err)
		InternalServerError("Could not read the generated report").Write(w)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, f)
	if err != nil {
		logger.WarnContext(r.Context(), "report download interrupted",
			log.FieldOperation, log.OpDownload,
			log.FieldBytes, n,
			log.FieldError, err)
		return
	}
	logger.InfoContext(r.Context(), "report downloaded",
		log.FieldOperation, log.OpDownload,
		log.FieldFilename, artifact.Filename,
		log.FieldBytes, n)
}

// reportError maps pipeline failures to responses. Validation problems are
// the user's to fix; font problems are operational but expected; anything
// else goes to Sentry.
func (s *Server) reportError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())
	switch {
	case errors.Is(err, core.ErrValidation):
		logger.InfoContext(r.Context(), "report request rejected", log.FieldOperation, log.OpValidate, log.FieldError, err)
		UnprocessableEntityError(validationMessage(err)).Write(w)
	case errors.Is(err, fonts.ErrFontUnavailable):
		logger.ErrorContext(r.Context(), "report fonts unavailable", log.FieldOperation, log.OpProvision, log.FieldError, err)
		ServiceUnavailableError("Report fonts are unavailable: " + err.Error()).Write(w)
	default:
		logger.ErrorContext(r.Context(), "report generation failed", log.FieldError, err)
		captureError(r, err)
		InternalServerError("Could not generate the report. Please try again.").Write(w)
	}
}

func captureError(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("http.route", r.URL.Path)
		scope.SetTag("http.method", r.Method)
		if id := trace.GetRequestID(r.Context()); id != "" {
			scope.SetTag("request_id", id)
		}
		hub.CaptureException(err)
	})
}
