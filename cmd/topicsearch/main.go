package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/topicsearch/internal/config"
	dbRedis "github.com/kailas-cloud/topicsearch/internal/db/redis"
	"github.com/kailas-cloud/topicsearch/internal/engine"
	"github.com/kailas-cloud/topicsearch/internal/engine/elastic"
	logpkg "github.com/kailas-cloud/topicsearch/internal/logger"
	"github.com/kailas-cloud/topicsearch/internal/metrics"
	"github.com/kailas-cloud/topicsearch/internal/query"
	usagerepo "github.com/kailas-cloud/topicsearch/internal/repository/usage"
	"github.com/kailas-cloud/topicsearch/internal/resilience"
	chiTransport "github.com/kailas-cloud/topicsearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/topicsearch/internal/usecase/health"
	"github.com/kailas-cloud/topicsearch/internal/usecase/ranking"
	suggestuc "github.com/kailas-cloud/topicsearch/internal/usecase/suggest"
	usageuc "github.com/kailas-cloud/topicsearch/internal/usecase/usage"
	"github.com/kailas-cloud/topicsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting topicsearch API server",
		zap.String("version", version.String()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("engine_addrs", cfg.Engine.Addrs),
		zap.String("index", cfg.Engine.Index),
		zap.Int("topic_count", cfg.Ranking.TopicCount),
		zap.Bool("usage_enabled", cfg.Usage.Enabled),
		zap.Bool("breaker_enabled", cfg.Resilience.BreakerEnabled),
	)

	// Register engine and ranking metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	es, err := elastic.New(elastic.Config{
		Addrs:    cfg.Engine.Addrs,
		Username: cfg.Engine.Username,
		Password: cfg.Engine.Password,
		Index:    cfg.Engine.Index,
	})
	if err != nil {
		logger.Fatal("Failed to create elasticsearch client", zap.Error(err))
	}

	// Wait for the cluster to be ready
	ctx := context.Background()
	if err := es.WaitForReady(ctx, time.Duration(cfg.Engine.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Elasticsearch not ready", zap.Error(err))
	}
	logger.Info("Connected to elasticsearch")

	eng := buildEngine(es, cfg, logger)
	assembler := query.NewAssembler(cfg.QueryConfig())

	// Usage counters are optional; pass nil interfaces (not typed nil
	// pointers) when they are off.
	var (
		counter     usageuc.Counter
		usagePinger healthuc.UsagePinger
	)
	if cfg.Usage.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Usage.Addrs,
			Password:   cfg.Usage.Password,
			ClientName: "topicsearch",
		})
		if err != nil {
			logger.Fatal("Failed to create usage store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Usage.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Usage store not ready", zap.Error(err))
		}
		logger.Info("Connected to usage store")

		counter = usagerepo.New(store, cfg.Usage.KeyPrefix,
			time.Duration(cfg.Usage.DailyTTLHours)*time.Hour,
			time.Duration(cfg.Usage.MonthlyTTLDays)*24*time.Hour,
		)
		usagePinger = store
	}

	// Create use case services
	searchSvc := ranking.New(eng, assembler)
	suggestSvc := suggestuc.New(eng, assembler, cfg.SuggestConfig())
	usageSvc := usageuc.New(counter)
	healthSvc := healthuc.New(eng, usagePinger, cfg.PingTimeout())

	// Create chi server
	server := chiTransport.NewServer(searchSvc, suggestSvc, healthSvc, usageSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware("/metrics", "/health"))
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEngine assembles the decorator chain: Elasticsearch -> Instrumented -> Breaker.
// The breaker is outermost so rejected calls never reach the engine metrics.
func buildEngine(es engine.Engine, cfg config.Config, logger *zap.Logger) engine.Engine {
	var eng engine.Engine = engine.NewInstrumentedEngine(es, logger)
	if cfg.Resilience.BreakerEnabled {
		eng = resilience.NewBreaker(eng, "elasticsearch", cfg.BreakerConfig(), logger)
	}
	return eng
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.String("strategy", ww.Header().Get("X-Ranking-Strategy")),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
