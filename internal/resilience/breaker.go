// Package resilience guards the search engine with a circuit breaker.
// Calls are never retried.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/engine"
	"github.com/kailas-cloud/topicsearch/internal/metrics"
)

// Compile-time check: Breaker implements engine.Engine.
var _ engine.Engine = (*Breaker)(nil)

// Config tunes the breaker.
type Config struct {
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

// DefaultConfig returns the breaker defaults.
func DefaultConfig() Config {
	return Config{
		MinRequests:      10,
		FailureRatio:     0.5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.MinRequests == 0 {
		out.MinRequests = def.MinRequests
	}
	if out.FailureRatio <= 0 || out.FailureRatio > 1 {
		out.FailureRatio = def.FailureRatio
	}
	if out.OpenTimeout <= 0 {
		out.OpenTimeout = def.OpenTimeout
	}
	if out.HalfOpenMaxCalls == 0 {
		out.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return out
}

// Breaker wraps an engine with a circuit breaker on Search.
// Only unavailability counts as a failure: a rejected query proves the
// engine is reachable. Ping bypasses the breaker so health probes observe
// the engine directly.
type Breaker struct {
	inner engine.Engine
	name  string
	cb    *gobreaker.CircuitBreaker[*engine.SearchResponse]
}

// canceledError marks a failure caused by the caller going away.
type canceledError struct{ err error }

func (e canceledError) Error() string { return e.err.Error() }
func (e canceledError) Unwrap() error { return e.err }

// NewBreaker wraps inner with a circuit breaker named name.
func NewBreaker(inner engine.Engine, name string, cfg Config, logger *zap.Logger) *Breaker {
	cfg = cfg.normalize()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ce canceledError
			if errors.As(err, &ce) {
				return true
			}
			return !errors.Is(err, domain.ErrEngineUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitState.WithLabelValues(name).Set(stateValue(to))
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	metrics.CircuitState.WithLabelValues(name).Set(stateValue(gobreaker.StateClosed))

	return &Breaker{
		inner: inner,
		name:  name,
		cb:    gobreaker.NewCircuitBreaker[*engine.SearchResponse](settings),
	}
}

// Search runs the request through the breaker. An open breaker fails fast
// with ErrEngineUnavailable without calling the engine.
func (b *Breaker) Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error) {
	resp, err := b.cb.Execute(func() (*engine.SearchResponse, error) {
		resp, err := b.inner.Search(ctx, req)
		if err != nil && errors.Is(ctx.Err(), context.Canceled) {
			return nil, canceledError{err: err}
		}
		return resp, err
	})
	if err == nil {
		return resp, nil
	}

	if IsCircuitOpen(err) {
		return nil, domain.NewEngineUnavailable(req.Op, fmt.Errorf("circuit %s: %w", b.name, err))
	}
	var ce canceledError
	if errors.As(err, &ce) {
		return nil, ce.err
	}
	return nil, err
}

// Ping delegates to the inner engine.
func (b *Breaker) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// IsCircuitOpen reports whether err was produced by a rejecting breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
