// Package chi carries the REST surface over the provider contract: one
// uniform set of CRUD routes per resource plus an SSE change stream.
package chi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/canopy-data/canopy/internal/domain"
	healthuc "github.com/canopy-data/canopy/internal/usecase/health"
	provideruc "github.com/canopy-data/canopy/internal/usecase/provider"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeResourceNotFound = "resource_not_found"
	codeRecordNotFound   = "record_not_found"
	codeInternalError    = "internal_error"
	codeStreamingFailed  = "streaming_unsupported"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the provider operations over REST.
type Server struct {
	provider      *provideruc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	idField       string
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(provider *provideruc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		provider: provider,
		health:   health,
		logger:   logger,
		idField:  domain.DefaultIDField,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrResourceNotFound, http.StatusNotFound, codeResourceNotFound),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, codeRecordNotFound),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidRecord, http.StatusBadRequest, codeValidationFailed),
	}
	return s
}

// WithIDField overrides the record id field used in response headers.
func (s *Server) WithIDField(field string) *Server {
	if field != "" {
		s.idField = field
	}
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1/{resource}", func(r chi.Router) {
		r.Get("/", s.ListRecords)
		r.Post("/", s.CreateRecord)
		r.Get("/events", s.StreamEvents)
		r.Get("/{id}", s.GetRecord)
		r.Patch("/{id}", s.PatchRecord)
		r.Delete("/{id}", s.DeleteRecord)
	})
}

// listResponse is one page of records plus the total match count.
type listResponse struct {
	Items []domain.Record `json:"items"`
	Total int             `json:"total"`
}

// ListRecords handles GET /api/v1/{resource}. With repeated id params it
// returns exactly those records instead of running a query.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	if ids := r.URL.Query()["id"]; len(ids) > 0 {
		records, err := s.provider.GetMany(r.Context(), resource, ids)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		w.Header().Set("X-Total-Count", strconv.Itoa(len(records)))
		writeJSON(w, http.StatusOK, listResponse{Items: records, Total: len(records)})
		return
	}

	q, err := queryFromParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	res, err := s.provider.GetList(r.Context(), resource, q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(res.Total))
	writeJSON(w, http.StatusOK, listResponse{Items: res.Records, Total: res.Total})
}

// GetRecord handles GET /api/v1/{resource}/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	id := chi.URLParam(r, "id")

	rec, err := s.provider.GetOne(r.Context(), resource, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// CreateRecord handles POST /api/v1/{resource}.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	var fields domain.Record
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, err := s.provider.Create(r.Context(), resource, fields)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/"+resource+"/"+rec.ID(s.idField))
	writeJSON(w, http.StatusCreated, rec)
}

// PatchRecord handles PATCH /api/v1/{resource}/{id}.
func (s *Server) PatchRecord(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	id := chi.URLParam(r, "id")

	var partial domain.Record
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, err := s.provider.Update(r.Context(), resource, id, partial)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /api/v1/{resource}/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	id := chi.URLParam(r, "id")

	if err := s.provider.Delete(r.Context(), resource, id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StreamEvents handles GET /api/v1/{resource}/events. It holds the
// connection open and emits one SSE event per change tick under the
// resource. The tick carries no change classification; clients re-query.
func (s *Server) StreamEvents(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeStreamingFailed, "response writer does not support streaming")
		return
	}

	// The stream outlives the server's write timeout; clear the deadline
	// for this response. Writers without deadline support (test
	// recorders) return an error, which leaves their behavior unchanged.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Buffered so a tick arriving mid-write is not lost; coalescing
	// further ticks is fine because subscribers re-query anyway.
	ticks := make(chan struct{}, 1)
	stop, err := s.provider.Subscribe(r.Context(), resource, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticks:
			if _, err := w.Write([]byte("event: change\ndata: {\"resource\":\"" + resource + "\"}\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrResourceNotFound,
		domain.ErrRecordNotFound,
		domain.ErrInvalidQuery,
		domain.ErrInvalidRecord,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
