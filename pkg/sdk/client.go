package topicsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/topicsearch/internal/db"
	dbRedis "github.com/kailas-cloud/topicsearch/internal/db/redis"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/request"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
	"github.com/kailas-cloud/topicsearch/internal/engine"
	"github.com/kailas-cloud/topicsearch/internal/engine/elastic"
	"github.com/kailas-cloud/topicsearch/internal/query"
	usagerepo "github.com/kailas-cloud/topicsearch/internal/repository/usage"
	"github.com/kailas-cloud/topicsearch/internal/resilience"
	healthuc "github.com/kailas-cloud/topicsearch/internal/usecase/health"
	"github.com/kailas-cloud/topicsearch/internal/usecase/ranking"
	suggestuc "github.com/kailas-cloud/topicsearch/internal/usecase/suggest"
	usageuc "github.com/kailas-cloud/topicsearch/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
}

type suggestUseCase interface {
	Autocomplete(ctx context.Context, q string, size int) (suggestuc.Buckets, error)
	Suggest(ctx context.Context, q string) (suggestuc.Suggestions, error)
}

type usageUseCase interface {
	Record(ctx context.Context, endpoint domusage.Endpoint)
	GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error)
}

// Client is the topicsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	store      db.Store
	searchSvc  searchUseCase
	suggestSvc suggestUseCase
	healthSvc  healthUseCase
	usageSvc   usageUseCase
	obs        *observer
}

// New creates a Client and waits until Elasticsearch answers.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}
	cfg.service.ApplyDefaults()

	if len(cfg.service.Engine.Addrs) == 0 {
		return nil, errors.New("topicsearch: elasticsearch address required (use WithElasticsearch)")
	}
	if cfg.service.Engine.Index == "" {
		return nil, errors.New("topicsearch: index required (use WithElasticsearch)")
	}

	es, err := elastic.New(elastic.Config{
		Addrs:     cfg.service.Engine.Addrs,
		Username:  cfg.service.Engine.Username,
		Password:  cfg.service.Engine.Password,
		Index:     cfg.service.Engine.Index,
		Transport: cfg.transport,
	})
	if err != nil {
		return nil, fmt.Errorf("topicsearch: create engine client: %w", err)
	}
	if err := es.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		return nil, fmt.Errorf("topicsearch: engine not ready: %w", err)
	}

	var store db.Store
	if cfg.service.Usage.Enabled {
		store, err = createStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return wireClient(es, store, cfg, obs), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.service.Usage.Addrs,
		Password:   cfg.service.Usage.Password,
		ClientName: "topicsearch-sdk",
	})
	if err != nil {
		return nil, fmt.Errorf("topicsearch: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("topicsearch: redis not ready: %w", err)
	}
	return s, nil
}

func wireClient(es engine.Engine, store db.Store, cfg *clientConfig, obs *observer) *Client {
	svc := &cfg.service

	if svc.Resilience.BreakerEnabled {
		es = resilience.NewBreaker(es, "sdk", svc.BreakerConfig(), zap.NewNop())
	}
	assembler := query.NewAssembler(svc.QueryConfig())

	// Interfaces stay nil (not typed nil) when usage tracking is off.
	var (
		counter usageuc.Counter
		pinger  healthuc.UsagePinger
	)
	if store != nil {
		counter = usagerepo.New(store, svc.Usage.KeyPrefix,
			time.Duration(svc.Usage.DailyTTLHours)*time.Hour,
			time.Duration(svc.Usage.MonthlyTTLDays)*24*time.Hour,
		)
		pinger = store
	}

	return &Client{
		store:      store,
		searchSvc:  ranking.New(es, assembler),
		suggestSvc: suggestuc.New(es, assembler, svc.SuggestConfig()),
		healthSvc:  healthuc.New(es, pinger, svc.PingTimeout()),
		usageSvc:   usageuc.New(counter),
		obs:        obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}
