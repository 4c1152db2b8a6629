// Package engine defines the search-engine port: a typed subset of the
// Elasticsearch query DSL, the search request/response model and the Engine
// interface implemented by the Elasticsearch adapter and its decorators.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
)

// Operation names used for metrics labels and error context.
const (
	OpLookup           = "lookup"
	OpTopics           = "topics"
	OpCalibrateBase    = "calibrate_base"
	OpCalibrateBoosted = "calibrate_boosted"
	OpSearch           = "search"
	OpAutocomplete     = "autocomplete"
	OpSuggest          = "suggest"
	OpPing             = "ping"
)

// Engine executes search requests against the document index.
type Engine interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	Ping(ctx context.Context) error
}

// SearchRequest is one search call. Op labels the call for metrics and errors.
type SearchRequest struct {
	Op   string
	Body *SearchBody
}

// SearchBody is the request body of a search call.
type SearchBody struct {
	From    int                    `json:"from,omitempty"`
	Size    int                    `json:"size"`
	Source  *Source                `json:"_source,omitempty"`
	Query   Query                  `json:"query,omitempty"`
	Aggs    map[string]Aggregation `json:"aggs,omitempty"`
	Suggest *Suggest               `json:"suggest,omitempty"`
}

// Source is a field projection. An empty projection disables _source.
type Source struct {
	Fields []string
}

// Fields projects the given stored fields.
func Fields(fields ...string) *Source { return &Source{Fields: fields} }

// NoSource disables _source in the response.
func NoSource() *Source { return &Source{} }

// MarshalJSON implements json.Marshaler.
func (s Source) MarshalJSON() ([]byte, error) {
	if len(s.Fields) == 0 {
		return []byte("false"), nil
	}
	data, err := json.Marshal(s.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal source: %w", err)
	}
	return data, nil
}

// SearchResponse is the decoded search response.
type SearchResponse struct {
	Took         int64                      `json:"took"`
	TimedOut     bool                       `json:"timed_out"`
	Hits         Hits                       `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
	Suggest      map[string][]SuggestEntry  `json:"suggest,omitempty"`
}

// Hits is the ranked hit list.
type Hits struct {
	Total    *TotalHits `json:"total,omitempty"`
	MaxScore *float64   `json:"max_score"`
	Hits     []Hit      `json:"hits"`
}

// TotalHits is the total match count.
type TotalHits struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// UnmarshalJSON accepts both the object form and the legacy plain number.
func (t *TotalHits) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		t.Value = n
		t.Relation = "eq"
		return nil
	}
	type alias TotalHits
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("unmarshal total hits: %w", err)
	}
	*t = TotalHits(a)
	return nil
}

// Hit is a single ranked document.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score"`
	Source json.RawMessage `json:"_source,omitempty"`
}

// SuggestEntry is one suggester result for one input token.
type SuggestEntry struct {
	Text    string          `json:"text"`
	Offset  int             `json:"offset"`
	Length  int             `json:"length"`
	Options []SuggestOption `json:"options"`
}

// SuggestOption is a single suggestion.
type SuggestOption struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Bucket is a terms aggregation bucket.
type Bucket struct {
	Key      any   `json:"key"`
	DocCount int64 `json:"doc_count"`
}

// TopScore returns the score of the first hit. ok is false if there is no
// scored hit.
func (r *SearchResponse) TopScore() (score float64, ok bool) {
	if len(r.Hits.Hits) == 0 || r.Hits.Hits[0].Score == nil {
		return 0, false
	}
	return *r.Hits.Hits[0].Score, true
}

// TotalValue returns the total match count, or the hit count when the engine
// did not report one.
func (r *SearchResponse) TotalValue() int64 {
	if r.Hits.Total != nil {
		return r.Hits.Total.Value
	}
	return int64(len(r.Hits.Hits))
}

// TermsBuckets decodes the buckets of a terms aggregation.
// A missing aggregation yields no buckets.
func (r *SearchResponse) TermsBuckets(name string) ([]Bucket, error) {
	raw, ok := r.Aggregations[name]
	if !ok {
		return nil, nil
	}
	var agg struct {
		Buckets []Bucket `json:"buckets"`
	}
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("decode aggregation %s: %w", name, err)
	}
	return agg.Buckets, nil
}
