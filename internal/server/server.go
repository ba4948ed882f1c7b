package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/company-lookup/internal/export"
	"github.com/sells-group/company-lookup/internal/lookup"
	"github.com/sells-group/company-lookup/internal/model"
)

// Processor runs a batch of company lookups. Satisfied by lookup.Pipeline.
type Processor interface {
	ProcessBatch(ctx context.Context, companyNames []string) []model.CompanyRecord
}

// Server exposes the pipeline over HTTP and WebSocket.
type Server struct {
	proc      Processor
	latest    *lookup.LatestResultStore
	hub       *Hub
	maxBatch  int
	exportOpt export.Options

	// batchMu serializes batches: one logical worker, shared between the
	// HTTP and WebSocket entry points.
	batchMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBatch overrides the per-request company limit.
func WithMaxBatch(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithExportOptions sets the default CSV rendering options.
func WithExportOptions(opts export.Options) Option {
	return func(s *Server) {
		s.exportOpt = opts
	}
}

// New creates a Server.
func New(proc Processor, latest *lookup.LatestResultStore, hub *Hub, opts ...Option) *Server {
	s := &Server{
		proc:     proc,
		latest:   latest,
		hub:      hub,
		maxBatch: model.MaxBatchSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/search", s.handleSearch)
	r.Post("/export", s.handleExport)
	r.Get("/results", s.handleResults)
	r.Get("/ws", s.wsHandler().ServeHTTP)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Companies []string `json:"companies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input. Please provide an array of company names.")
		return
	}
	if len(req.Companies) > s.maxBatch {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Too many companies. Maximum limit is %d.", s.maxBatch))
		return
	}

	names := model.NormalizeCompanyNames(req.Companies)
	if len(names) == 0 {
		respondError(w, http.StatusBadRequest, "Invalid input. Please provide an array of company names.")
		return
	}

	if !s.batchMu.TryLock() {
		respondError(w, http.StatusConflict, "A search is already running.")
		return
	}
	defer s.batchMu.Unlock()

	// A started batch runs to completion even if the requester disconnects;
	// the request context would otherwise mass-fail the remaining companies.
	results := s.proc.ProcessBatch(context.WithoutCancel(r.Context()), names)
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Results []model.CompanyRecord `json:"results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Results) == 0 {
		respondError(w, http.StatusBadRequest, "Invalid input. Please provide an array of company results.")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	// Render to a buffer first so failures surface as JSON errors instead
	// of a truncated attachment.
	var buf bytes.Buffer
	var contentType string

	switch format {
	case "xlsx":
		if err := export.WriteXLSX(&buf, req.Results); err != nil {
			s.exportFailure(w, err)
			return
		}
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		opts := s.exportOpt
		if r.URL.Query().Get("encoding") == "sjis" {
			opts.ShiftJIS = true
		}
		if err := export.WriteCSV(&buf, req.Results, opts); err != nil {
			s.exportFailure(w, err)
			return
		}
		contentType = "text/csv; charset=utf-8"
		if opts.ShiftJIS {
			contentType = "text/csv; charset=Shift_JIS"
		}
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unknown export format %q.", format))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", export.Filename(format, time.Now())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zap.L().Warn("export: write response", zap.Error(err))
	}
}

func (s *Server) exportFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, export.ErrNoResults) {
		respondError(w, http.StatusBadRequest, "Invalid input. Please provide an array of company results.")
		return
	}
	zap.L().Error("export failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "An error occurred while exporting results.")
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	results, ok := s.latest.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "No results available yet.")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
