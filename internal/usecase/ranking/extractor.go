package ranking

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/domain/topic"
	"github.com/kailas-cloud/topicsearch/internal/engine"
	"github.com/kailas-cloud/topicsearch/internal/query"
)

// Extractor folds the topic vectors of preference documents into a raw
// weight vector.
type Extractor struct {
	engine    Searcher
	assembler *query.Assembler
}

// NewExtractor creates an Extractor.
func NewExtractor(e Searcher, a *query.Assembler) *Extractor {
	return &Extractor{engine: e, assembler: a}
}

// ExtractRawWeights starts from the neutral vector, adds the topics of every
// liked document and subtracts those of every disliked document. Both lists
// empty means no engine call. The two lookups run concurrently and both must
// succeed.
func (x *Extractor) ExtractRawWeights(ctx context.Context, liked, disliked []string) (topic.Weights, error) {
	weights := topic.Neutral(x.assembler.TopicCount())
	if len(liked) == 0 && len(disliked) == 0 {
		return weights, nil
	}

	var likedVecs, dislikedVecs []topic.Vector
	g, gctx := errgroup.WithContext(ctx)
	if len(liked) > 0 {
		g.Go(func() error {
			var err error
			likedVecs, err = x.lookup(gctx, liked)
			return err
		})
	}
	if len(disliked) > 0 {
		g.Go(func() error {
			var err error
			dislikedVecs, err = x.lookup(gctx, disliked)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract weights: %w", err)
	}

	for _, v := range likedVecs {
		weights.Add(v)
	}
	for _, v := range dislikedVecs {
		weights.Sub(v)
	}
	return weights, nil
}

// lookup fetches the topic vectors of ids. Unknown ids contribute nothing.
func (x *Extractor) lookup(ctx context.Context, ids []string) ([]topic.Vector, error) {
	resp, err := x.engine.Search(ctx, &engine.SearchRequest{
		Op:   engine.OpTopics,
		Body: x.assembler.TopicLookup(ids),
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // engine errors already carry op context
	}

	field := x.assembler.TopicField()
	vecs := make([]topic.Vector, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		v, err := parseTopics(hit.Source, field, x.assembler.TopicCount())
		if err != nil {
			return nil, domain.NewEngineQueryError(engine.OpTopics, 0,
				fmt.Sprintf("document %s: %v", hit.ID, err))
		}
		vecs = append(vecs, v)
	}
	return vecs, nil
}

func parseTopics(source json.RawMessage, field string, topics int) (topic.Vector, error) {
	if len(source) == 0 {
		return topic.Vector{}, nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}
	raw, ok := doc[field]
	if !ok || string(raw) == "null" {
		return topic.Vector{}, nil
	}
	var categories map[string]float64
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("decode %s: %w", field, err)
	}
	return topic.ParseVector(categories, topics), nil
}
