package chi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/topicsearch/internal/usecase/health"
)

// healthyBody is the plain-text body of a passing health probe.
const healthyBody = "All is well"

// UsageResponse reports request counters for one period.
type UsageResponse struct {
	Period        string           `json:"period"`
	PeriodStartAt time.Time        `json:"period_start_at"`
	PeriodEndAt   time.Time        `json:"period_end_at"`
	Tracking      bool             `json:"tracking"`
	Total         int64            `json:"total"`
	Endpoints     map[string]int64 `json:"endpoints"`
}

// HealthCheck handles GET /health. A failing usage store degrades the
// service but keeps the probe green.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	if report.Status == healthuc.Unhealthy {
		s.logger.Warn("health check failed", zap.Error(report.Err))
		writeError(w, http.StatusServiceUnavailable, CodeEngineUnavailable, domain.ErrEngineUnavailable.Error())
		return
	}
	if report.Status == healthuc.Degraded {
		s.logger.Warn("health check degraded", zap.Any("checks", report.Checks))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(healthyBody))
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var period *string
	if err := bindAll(r.URL.Query(), []binding{{name: "period", dest: &period}}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	p := domusage.PeriodMonth
	if period != nil {
		p = domusage.Period(*period)
	}

	report, err := s.usage.GetReport(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	endpoints := make(map[string]int64, len(report.Counts()))
	for ep, n := range report.Counts() {
		endpoints[string(ep)] = n
	}
	writeJSON(w, http.StatusOK, UsageResponse{
		Period:        string(report.Period()),
		PeriodStartAt: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEndAt:   time.UnixMilli(report.PeriodEnd()).UTC(),
		Tracking:      report.Tracking(),
		Total:         report.Total(),
		Endpoints:     endpoints,
	})
}
