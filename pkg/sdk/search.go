package topicsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/topicsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/request"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
)

// Strategy names the ranking branch that produced a result.
type Strategy string

// Strategy values.
const (
	StrategyDocument Strategy = "document"
	StrategySimple   Strategy = "simple"
	StrategyBlended  Strategy = "blended"
	StrategyFallback Strategy = "fallback"
)

// Query is a ranked text search.
type Query struct {
	Text string
	// Page is 1-indexed; values below 1 select the first page.
	Page     int
	Liked    []string
	Disliked []string
	// IncludeHidden disables the visibility filter.
	IncludeHidden bool
}

// Result is one page of ranked hits.
type Result struct {
	Took     time.Duration
	Total    int64
	MaxScore *float64
	Hits     []Hit
	Strategy Strategy
}

// Hit is a ranked document with its projected source fields.
type Hit struct {
	Index  string
	ID     string
	Score  *float64
	Source json.RawMessage
}

// DecodeSource unmarshals a hit's source fields into T.
func DecodeSource[T any](h Hit) (T, error) {
	var v T
	if len(h.Source) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(h.Source, &v); err != nil {
		return v, fmt.Errorf("topicsearch: decode hit %s: %w", h.ID, err)
	}
	return v, nil
}

// Search runs a text query. Liked and disliked ids bias the ranking towards
// and away from their topics and are never returned themselves.
func (c *Client) Search(ctx context.Context, q Query) (Result, error) {
	return c.run(ctx, "search", request.Params{
		Query:      q.Text,
		Page:       q.Page,
		Liked:      q.Liked,
		Disliked:   q.Disliked,
		Visibility: !q.IncludeHidden,
		Blending:   true,
	})
}

// Plain runs a text query without preference blending. excluded ids are
// filtered out of the results.
func (c *Client) Plain(ctx context.Context, text string, page int, excluded ...string) (Result, error) {
	return c.run(ctx, "plain", request.Params{
		Query:      text,
		Page:       page,
		Excluded:   excluded,
		Visibility: true,
	})
}

// Document looks up a single document by id.
func (c *Client) Document(ctx context.Context, id string) (Result, error) {
	return c.run(ctx, "document", request.Params{DocumentID: id, Visibility: true})
}

func (c *Client) run(ctx context.Context, op string, p request.Params) (_ Result, err error) {
	obs := c.obs.begin(op)
	defer func() { obs.end(err) }()

	req, err := request.New(p)
	if err != nil {
		return Result{}, err
	}
	page, err := c.searchSvc.Search(ctx, req)
	if err != nil {
		return Result{}, err
	}
	c.usageSvc.Record(ctx, endpointOf(op, req))

	res := pageToResult(page)
	obs.served(res.Strategy)
	return res, nil
}

func endpointOf(op string, req request.Request) domusage.Endpoint {
	switch {
	case req.Mode() == mode.Document:
		return domusage.EndpointDocument
	case op == "plain":
		return domusage.EndpointPlain
	case req.HasPreferences():
		return domusage.EndpointBlended
	default:
		return domusage.EndpointSearch
	}
}

func pageToResult(p result.Page) Result {
	hits := make([]Hit, len(p.Hits()))
	for i, h := range p.Hits() {
		hits[i] = Hit{Index: h.Index(), ID: h.ID(), Score: h.Score(), Source: h.Source()}
	}
	return Result{
		Took:     time.Duration(p.TookMs()) * time.Millisecond,
		Total:    p.Total(),
		MaxScore: p.MaxScore(),
		Hits:     hits,
		Strategy: Strategy(p.Strategy()),
	}
}
