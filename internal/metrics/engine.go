package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search engine and ranking pipeline metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topicsearch",
			Name:      "engine_requests_total",
			Help:      "Total number of search engine calls",
		},
		[]string{"op", "status"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topicsearch",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	RankingStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topicsearch",
			Name:      "ranking_strategy_total",
			Help:      "Served result pages by pipeline branch",
		},
		[]string{"strategy"}, // document / simple / blended / fallback
	)

	CalibrationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topicsearch",
			Name:      "calibration_total",
			Help:      "Score calibrations by outcome",
		},
		[]string{"result"}, // ok / degenerate
	)

	CalibrationMultiplier = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "topicsearch",
			Name:      "calibration_multiplier",
			Help:      "Distribution of base/boosted top-score multipliers",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	CircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "topicsearch",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers engine and ranking metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(RankingStrategyTotal)
	prometheus.MustRegister(CalibrationTotal)
	prometheus.MustRegister(CalibrationMultiplier)
	prometheus.MustRegister(CircuitState)
	engineMetricsRegistered = true
}
