package ranking

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/domain/topic"
	"github.com/kailas-cloud/topicsearch/internal/engine"
	"github.com/kailas-cloud/topicsearch/internal/query"
)

// Calibrator scales the topic boost to the magnitude of text relevance.
type Calibrator struct {
	engine    Searcher
	assembler *query.Assembler
}

// NewCalibrator creates a Calibrator.
func NewCalibrator(e Searcher, a *query.Assembler) *Calibrator {
	return &Calibrator{engine: e, assembler: a}
}

// Calibrate returns baseTop / boostedTop, where baseTop is the best score of
// the unboosted query and boostedTop the best score of the topic boost alone.
// Both probes run concurrently. It returns domain.ErrCalibrationDegenerate
// when either probe has no scored hit, a top score is not positive, or the
// ratio is not finite.
func (c *Calibrator) Calibrate(ctx context.Context, base engine.Query, normalized topic.Weights) (float64, error) {
	boosted, err := c.assembler.Boosted(base, normalized)
	if err != nil {
		return 0, fmt.Errorf("build boosted probe: %w", err)
	}

	var baseResp, boostedResp *engine.SearchResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		baseResp, err = c.engine.Search(gctx, &engine.SearchRequest{
			Op:   engine.OpCalibrateBase,
			Body: c.assembler.Calibration(base),
		})
		return err
	})
	g.Go(func() error {
		var err error
		boostedResp, err = c.engine.Search(gctx, &engine.SearchRequest{
			Op:   engine.OpCalibrateBoosted,
			Body: boosted,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("calibrate: %w", err)
	}

	return multiplier(baseResp, boostedResp)
}

func multiplier(baseResp, boostedResp *engine.SearchResponse) (float64, error) {
	baseTop, ok := baseResp.TopScore()
	if !ok {
		return 0, fmt.Errorf("%w: base query has no hits", domain.ErrCalibrationDegenerate)
	}
	boostedTop, ok := boostedResp.TopScore()
	if !ok {
		return 0, fmt.Errorf("%w: boosted query has no hits", domain.ErrCalibrationDegenerate)
	}
	if baseTop <= 0 || boostedTop <= 0 {
		return 0, fmt.Errorf("%w: top scores %v / %v", domain.ErrCalibrationDegenerate, baseTop, boostedTop)
	}
	m := baseTop / boostedTop
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		return 0, fmt.Errorf("%w: multiplier %v", domain.ErrCalibrationDegenerate, m)
	}
	return m, nil
}
