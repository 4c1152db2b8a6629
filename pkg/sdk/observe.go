package topicsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/topicsearch/internal/domain"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	strategies *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	var (
		m   sdkMetrics
		err error
	)
	m.operations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topicsearch",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "SDK calls by operation and outcome.",
	}, []string{"operation", "status"}))
	if err != nil {
		return nil, err
	}
	m.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topicsearch",
		Subsystem: "sdk",
		Name:      "operation_duration_seconds",
		Help:      "SDK call latency in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	m.strategies, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topicsearch",
		Subsystem: "sdk",
		Name:      "strategy_total",
		Help:      "Result pages served by the SDK per ranking strategy.",
	}, []string{"strategy"}))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// register adds c to reg. When an identical collector is already there,
// that one is returned so several clients can share a registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("topicsearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("topicsearch: metric registered with a different type: %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer logs and measures SDK calls. A nil observer, logger or metrics
// set disables the matching output.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// operation is one in-flight SDK call.
type operation struct {
	obs      *observer
	name     string
	start    time.Time
	strategy Strategy
}

func (o *observer) begin(name string) *operation {
	return &operation{obs: o, name: name, start: time.Now()}
}

// served records which ranking branch produced the page.
func (op *operation) served(s Strategy) {
	op.strategy = s
}

func (op *operation) end(err error) {
	o := op.obs
	if o == nil {
		return
	}
	dur := time.Since(op.start)
	status := statusOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op.name, status).Inc()
		o.metrics.duration.WithLabelValues(op.name).Observe(dur.Seconds())
		if err == nil && op.strategy != "" {
			o.metrics.strategies.WithLabelValues(string(op.strategy)).Inc()
		}
	}
	if o.logger == nil {
		return
	}

	attrs := []any{"op", op.name, "duration", dur}
	if op.strategy != "" {
		attrs = append(attrs, "strategy", op.strategy)
	}
	switch status {
	case "ok":
		o.logger.Debug("operation completed", attrs...)
	case "invalid":
		o.logger.Debug("operation rejected", append(attrs, "error", err)...)
	default:
		o.logger.Warn("operation failed", append(attrs, "status", status, "error", err)...)
	}
}

// statusOf separates caller mistakes and engine outages from other failures.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, domain.ErrEngineUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
