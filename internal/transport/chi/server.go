package chi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/record"
	"github.com/kailas-cloud/esquery/internal/domain/search/query"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
	"github.com/kailas-cloud/esquery/internal/version"
)

// TypeService is the per-type search surface the server exposes.
type TypeService interface {
	Query(params url.Values, filters map[string][]any) *query.Builder
	Search(ctx context.Context, b *query.Builder, formatter searchuc.Formatter) (result.Result, error)
	Count(ctx context.Context, b *query.Builder) (int64, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// SearchResponse is the body of GET /v1/types/{type}/search.
type SearchResponse struct {
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	Results []record.Record `json:"results"`
}

// CountResponse is the body of GET /v1/types/{type}/count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version version.Info                    `json:"version"`
}

// Server serves search and count for configured document types.
type Server struct {
	types  map[string]TypeService
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server. types maps a document type name to its service.
func NewServer(types map[string]TypeService, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{types: types, health: health, logger: logger}
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1/types/{type}", func(r chi.Router) {
		r.Get("/search", s.Search)
		r.Get("/count", s.Count)
	})
}

// Search handles GET /v1/types/{type}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}

	b := svc.Query(r.URL.Query(), nil)
	res, err := svc.Search(r.Context(), b, nil)
	if err != nil {
		s.handleError(w, err)
		return
	}

	results := res.Records()
	if results == nil {
		results = []record.Record{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Total:   res.Total(),
		Limit:   b.Limit(),
		Offset:  b.Offset(),
		Results: results,
	})
}

// Count handles GET /v1/types/{type}/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}

	n, err := svc.Count(r.Context(), svc.Query(r.URL.Query(), nil))
	if err != nil {
		s.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  report.Status,
		Checks:  report.Checks,
		Version: version.Get(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) service(w http.ResponseWriter, r *http.Request) (TypeService, bool) {
	name := chi.URLParam(r, "type")
	svc, ok := s.types[name]
	if !ok {
		s.handleError(w, domain.NewUnknownType(name))
		return nil, false
	}
	return svc, true
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	s.logger.Warn("request failed", zap.Error(err))
	for _, h := range errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
