package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/metrics"
)

// Call outcome labels.
const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
	statusQueryError  = "query_error"
	statusError       = "error"
)

// InstrumentedEngine wraps Engine with per-operation metrics and debug logging.
type InstrumentedEngine struct {
	inner  Engine
	logger *zap.Logger
}

// NewInstrumentedEngine wraps an engine with observability.
func NewInstrumentedEngine(inner Engine, logger *zap.Logger) *InstrumentedEngine {
	return &InstrumentedEngine{inner: inner, logger: logger}
}

// Search delegates to the inner engine and records duration and outcome.
func (e *InstrumentedEngine) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	start := time.Now()
	resp, err := e.inner.Search(ctx, req)
	e.observe(req.Op, start, err)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Engine search completed",
		zap.String("op", req.Op),
		zap.Int64("took_ms", resp.Took),
		zap.Int("hits", len(resp.Hits.Hits)),
	)
	return resp, nil
}

// Ping delegates to the inner engine and records duration and outcome.
func (e *InstrumentedEngine) Ping(ctx context.Context) error {
	start := time.Now()
	err := e.inner.Ping(ctx)
	e.observe(OpPing, start, err)
	return err
}

func (e *InstrumentedEngine) observe(op string, start time.Time, err error) {
	duration := time.Since(start)
	status := outcome(err)
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
	metrics.EngineRequestsTotal.WithLabelValues(op, status).Inc()
	if err != nil {
		e.logger.Warn("Engine call failed",
			zap.String("op", op),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, domain.ErrEngineUnavailable):
		return statusUnavailable
	case errors.Is(err, domain.ErrEngineQuery):
		return statusQueryError
	default:
		return statusError
	}
}
