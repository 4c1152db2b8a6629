package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/request"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/topicsearch/internal/usecase/health"
	suggestuc "github.com/kailas-cloud/topicsearch/internal/usecase/suggest"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeEngineUnavailable = "engine_unavailable"
	CodeEngineQuery       = "engine_query_failed"
	CodeUsageUnavailable  = "usage_unavailable"
	CodeInternalError     = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Searcher runs ranked searches and document lookups.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
}

// Suggester serves autocomplete buckets and suggestions.
type Suggester interface {
	Autocomplete(ctx context.Context, q string, size int) (suggestuc.Buckets, error)
	Suggest(ctx context.Context, q string) (suggestuc.Suggestions, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageTracker counts requests and reports the counters.
type UsageTracker interface {
	Record(ctx context.Context, endpoint domusage.Endpoint)
	GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search API over chi.
type Server struct {
	search        Searcher
	suggest       Suggester
	health        HealthChecker
	usage         UsageTracker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	suggest Suggester,
	health HealthChecker,
	usage UsageTracker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		suggest: suggest,
		health:  health,
		usage:   usage,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusServiceUnavailable, CodeEngineUnavailable),
		sentinelHandler(domain.ErrEngineQuery, http.StatusInternalServerError, CodeEngineQuery),
		sentinelHandler(domain.ErrUsageUnavailable, http.StatusServiceUnavailable, CodeUsageUnavailable),
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/search", s.Search)
	r.Get("/api/search/plain", s.PlainSearch)
	r.Get("/api/search/autocomplete", s.Autocomplete)
	r.Get("/api/search/autocompletion", s.Autocompletion)
	r.Get("/api/search/suggest", s.Suggest)
	r.Get("/health", s.HealthCheck)
	r.Get("/usage", s.GetUsage)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) record(ctx context.Context, endpoint domusage.Endpoint) {
	if s.usage != nil {
		s.usage.Record(ctx, endpoint)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors and engine query failures carry their own text.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	if errors.Is(err, domain.ErrEngineQuery) {
		var ee *domain.EngineError
		if errors.As(err, &ee) && ee.Reason != "" {
			return ee.Reason
		}
		return domain.ErrEngineQuery.Error()
	}
	for _, sentinel := range []error{domain.ErrEngineUnavailable, domain.ErrUsageUnavailable} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
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
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
