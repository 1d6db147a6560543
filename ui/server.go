// Package ui exposes the analysis services over HTTP.
package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gosetl/adapters/export"
	"gosetl/app"
	"gosetl/domain/core"
	"gosetl/internal"
	"gosetl/internal/errors"
)

// Server routes analysis requests to the services.
type Server struct {
	router   *chi.Mux
	analyses *app.AnalysisService
	batches  *app.BatchService
	log      *internal.Logger
}

// NewServer creates the HTTP server over the two services.
func NewServer(analyses *app.AnalysisService, batches *app.BatchService) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		analyses: analyses,
		batches:  batches,
		log:      internal.DefaultLogger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// SetLogger replaces the default logger.
func (s *Server) SetLogger(log *internal.Logger) {
	if log != nil {
		s.log = log
	}
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Post("/api/runs", s.handleRun)
	s.router.Post("/api/batches", s.handleBatch)
	s.router.Get("/api/reports", s.handleListReports)
	s.router.Get("/api/reports/{id}", s.handleGetReport)
	s.router.Get("/api/reports/{id}/markdown", s.handleReportMarkdown)
	s.router.Get("/api/reports/{id}/html", s.handleReportHTML)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the server on the given port.
func (s *Server) ListenAndServe(port string) error {
	s.log.Info("HTTP server listening on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req app.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.InvalidInput("malformed run request: "+err.Error()))
		return
	}
	rep, err := s.analyses.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req app.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.InvalidInput("malformed batch request: "+err.Error()))
		return
	}
	outcome, err := s.batches.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.analyses.Reports())
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.analyses.Report(core.ReportID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, err := s.analyses.Report(core.ReportID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	md, err := export.Markdown(rep)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	rep, err := s.analyses.Report(core.ReportID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := export.HTML(rep)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response: %v", err)
	}
}

// writeError maps application error codes onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeConfigInvalid:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeNoData, errors.CodeInsufficientData:
		status = http.StatusUnprocessableEntity
	case errors.CodeCancelled:
		status = http.StatusRequestTimeout
	}
	s.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
