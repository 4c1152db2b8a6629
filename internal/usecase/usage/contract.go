package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
)

// Counter persists per-endpoint request counters.
type Counter interface {
	Increment(ctx context.Context, endpoint domusage.Endpoint, at time.Time) error
	Counts(ctx context.Context, period domusage.Period, at time.Time) (map[domusage.Endpoint]int64, error)
}
