package topicsearch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/topicsearch/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	// Engine, Ranking, Suggest, Usage and Resilience sections are shared
	// with the server configuration and its defaults.
	service config.Config

	transport        http.RoundTripper
	readinessTimeout time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch sets the index to search and the cluster addresses.
func WithElasticsearch(index string, addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.service.Engine.Index = index
		c.service.Engine.Addrs = addrs
	})
}

// WithBasicAuth sets Elasticsearch credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.service.Engine.Username = username
		c.service.Engine.Password = password
	})
}

// WithTopicCount sets the number of topics in the index's topic vectors.
// Default: 100.
func WithTopicCount(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.service.Ranking.TopicCount = n
	})
}

// WithProjection sets the source fields returned with every hit.
// Default: title, description, url, image.
func WithProjection(fields ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.service.Ranking.Projection = fields
	})
}

// WithPageSizes sets the hit count of the first page and of every later page.
// Defaults: 1 and 10.
func WithPageSizes(first, rest int) Option {
	return optionFunc(func(c *clientConfig) {
		c.service.Ranking.FirstPageSize = first
		c.service.Ranking.PageSize = rest
	})
}

// WithAuxiliaryTerm adds a keyword clause that lifts documents tagged with
// term by boost. Empty term disables the clause (default).
func WithAuxiliaryTerm(term string, boost float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.service.Ranking.AuxiliaryTerm = term
		c.service.Ranking.AuxiliaryBoost = boost
	})
}

// WithCircuitBreaker stops calling an unreachable engine for openTimeout
// once half of at least minRequests calls failed.
func WithCircuitBreaker(minRequests uint32, openTimeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.service.Resilience.BreakerEnabled = true
		c.service.Resilience.MinRequests = minRequests
		c.service.Resilience.OpenTimeoutSec = int(openTimeout / time.Second)
	})
}

// WithRedisUsage keeps per-endpoint request counters in Redis.
func WithRedisUsage(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.service.Usage.Enabled = true
		c.service.Usage.Addrs = []string{addr}
		c.service.Usage.Password = password
	})
}

// WithTransport overrides the HTTP transport used for Elasticsearch.
func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = rt
	})
}

// WithReadinessTimeout bounds the initial wait for Elasticsearch (and Redis).
// Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
