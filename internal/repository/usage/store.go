package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
)

// store is the consumer interface for counter operations (ISP).
type store interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Store keeps per-endpoint request counters (INCRBY + EXPIRE NX, MGET).
type Store struct {
	store    store
	prefix   string
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a counter store.
// dailyTTL is the TTL for daily keys (recommended: 48h).
// monthTTL is the TTL for monthly keys (recommended: 62 days).
func New(s store, prefix string, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store:    s,
		prefix:   prefix,
		dailyTTL: dailyTTL,
		monthTTL: monthTTL,
	}
}

// Increment adds one request to the daily and monthly counters of endpoint.
func (s *Store) Increment(ctx context.Context, endpoint domusage.Endpoint, at time.Time) error {
	if err := s.incr(ctx, s.key(endpoint, domusage.PeriodDay, at), s.dailyTTL); err != nil {
		return err
	}
	return s.incr(ctx, s.key(endpoint, domusage.PeriodMonth, at), s.monthTTL)
}

// Counts returns the counters of every endpoint for the period containing at.
// Missing keys count as zero.
func (s *Store) Counts(
	ctx context.Context, period domusage.Period, at time.Time,
) (map[domusage.Endpoint]int64, error) {
	endpoints := domusage.Endpoints()
	keys := make([]string, len(endpoints))
	for i, ep := range endpoints {
		keys[i] = s.key(ep, period, at)
	}

	vals, err := s.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: usage MGET: %w", domain.ErrUsageUnavailable, err)
	}

	counts := make(map[domusage.Endpoint]int64, len(endpoints))
	for i, ep := range endpoints {
		counts[ep] = 0
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		n, err := strconv.ParseInt(string(vals[i]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("usage MGET %s parse: %w", keys[i], err)
		}
		counts[ep] = n
	}
	return counts, nil
}

func (s *Store) incr(ctx context.Context, key string, ttl time.Duration) error {
	// The TTL is set once per key and not extended by later increments.
	if _, err := s.store.IncrWithTTL(ctx, key, 1, ttl); err != nil {
		return fmt.Errorf("%w: usage increment: %w", domain.ErrUsageUnavailable, err)
	}
	return nil
}

// key follows {prefix}:usage:{endpoint}:daily:YYYY-MM-DD or :monthly:YYYY-MM.
func (s *Store) key(endpoint domusage.Endpoint, period domusage.Period, at time.Time) string {
	at = at.UTC()
	if period == domusage.PeriodMonth {
		return fmt.Sprintf("%s:usage:%s:monthly:%s", s.prefix, endpoint, at.Format("2006-01"))
	}
	return fmt.Sprintf("%s:usage:%s:daily:%s", s.prefix, endpoint, at.Format("2006-01-02"))
}
