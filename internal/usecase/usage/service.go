package usage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
	"github.com/kailas-cloud/topicsearch/internal/logger"
)

// Service records and reports request usage.
type Service struct {
	counter Counter
	now     func() time.Time
}

// New creates a Service. counter can be nil (tracking disabled).
func New(counter Counter) *Service {
	return &Service{counter: counter, now: time.Now}
}

// Record counts one request for endpoint. Counter failures are logged and
// never fail the request being counted.
func (s *Service) Record(ctx context.Context, endpoint domusage.Endpoint) {
	if s.counter == nil {
		return
	}
	if err := s.counter.Increment(ctx, endpoint, s.now()); err != nil {
		logger.FromContext(ctx).Warn("Usage counter update failed",
			zap.String("endpoint", string(endpoint)),
			zap.Error(err),
		)
	}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error) {
	if !period.IsValid() {
		return domusage.Report{}, fmt.Errorf("%w: unsupported period %q", domain.ErrInvalidRequest, period)
	}

	now := s.now().UTC()
	var start, end time.Time
	switch period {
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
	}

	counts := make(map[domusage.Endpoint]int64, len(domusage.Endpoints()))
	for _, ep := range domusage.Endpoints() {
		counts[ep] = 0
	}
	if s.counter == nil {
		return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), counts, false), nil
	}

	stored, err := s.counter.Counts(ctx, period, now)
	if err != nil {
		return domusage.Report{}, fmt.Errorf("usage counts: %w", err)
	}
	for ep, n := range stored {
		counts[ep] = n
	}
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), counts, true), nil
}
