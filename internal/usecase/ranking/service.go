package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/request"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/result"
	"github.com/kailas-cloud/topicsearch/internal/engine"
	"github.com/kailas-cloud/topicsearch/internal/logger"
	"github.com/kailas-cloud/topicsearch/internal/metrics"
	"github.com/kailas-cloud/topicsearch/internal/query"
)

// Service runs the ranking pipeline: direct lookup, simple search, or
// topic-blended search with calibration.
type Service struct {
	engine     Searcher
	assembler  *query.Assembler
	extractor  *Extractor
	calibrator *Calibrator
	now        func() time.Time
}

// New creates a ranking service.
func New(e Searcher, a *query.Assembler) *Service {
	return &Service{
		engine:     e,
		assembler:  a,
		extractor:  NewExtractor(e, a),
		calibrator: NewCalibrator(e, a),
		now:        time.Now,
	}
}

// Search executes req. A document id is looked up directly; otherwise the
// text query runs plain, or blended with topic preferences when req has them.
// TookMs of the result is the wall time of the whole pipeline.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Page, error) {
	start := s.now()

	var (
		body     *engine.SearchBody
		strategy result.Strategy
		err      error
	)
	switch {
	case req.Mode() == mode.Document:
		body, strategy = s.assembler.Document(req), result.StrategyDocument
	case req.HasPreferences():
		body, strategy, err = s.blended(ctx, req)
	default:
		body, err = s.assembler.Search(req, nil)
		strategy = result.StrategySimple
	}
	if err != nil {
		return result.Page{}, err
	}

	resp, err := s.engine.Search(ctx, &engine.SearchRequest{Op: opFor(strategy), Body: body})
	if err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}

	metrics.RankingStrategyTotal.WithLabelValues(string(strategy)).Inc()
	took := s.now().Sub(start).Milliseconds()
	return toPage(resp, took, strategy), nil
}

// blended builds the topic-boosted query, or the unboosted one when
// calibration is degenerate.
func (s *Service) blended(ctx context.Context, req request.Request) (*engine.SearchBody, result.Strategy, error) {
	ctx = logger.With(ctx,
		zap.Int("liked", len(req.Liked())),
		zap.Int("disliked", len(req.Disliked())),
	)
	raw, err := s.extractor.ExtractRawWeights(ctx, req.Liked(), req.Disliked())
	if err != nil {
		return nil, "", err
	}
	normalized := raw.Normalize()

	m, err := s.calibrator.Calibrate(ctx, s.assembler.Base(req), normalized)
	switch {
	case errors.Is(err, domain.ErrCalibrationDegenerate):
		metrics.CalibrationTotal.WithLabelValues("degenerate").Inc()
		logger.FromContext(ctx).Warn("Calibration degenerate, serving unboosted query", zap.Error(err))
		body, err := s.assembler.Search(req, nil)
		return body, result.StrategyFallback, err
	case err != nil:
		return nil, "", err
	}

	metrics.CalibrationTotal.WithLabelValues("ok").Inc()
	metrics.CalibrationMultiplier.Observe(m)

	body, err := s.assembler.Search(req, normalized.Scale(m))
	if err != nil {
		return nil, "", fmt.Errorf("assemble blended query: %w", err)
	}
	return body, result.StrategyBlended, nil
}

func opFor(s result.Strategy) string {
	if s == result.StrategyDocument {
		return engine.OpLookup
	}
	return engine.OpSearch
}

func toPage(resp *engine.SearchResponse, took int64, strategy result.Strategy) result.Page {
	hits := make([]result.Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		hits = append(hits, result.NewHit(h.Index, h.ID, h.Score, h.Source))
	}
	return result.NewPage(took, resp.TotalValue(), resp.Hits.MaxScore, hits, strategy)
}
