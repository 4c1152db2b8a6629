package engine

import (
	"encoding/json"
	"fmt"
	"math"
)

// Score combination modes of function_score.
const (
	ScoreModeSum     = "sum"
	BoostModeSum     = "sum"
	BoostModeReplace = "replace"
)

// Multi-match types.
const (
	MultiMatchBestFields = "best_fields"
	MultiMatchPhrase     = "phrase"
)

// Query is a query clause.
type Query interface {
	json.Marshaler
	queryClause()
}

// BoolQuery combines clauses with must/should/must_not/filter semantics.
type BoolQuery struct {
	Must    []Query
	Should  []Query
	MustNot []Query
	Filter  []Query
}

func (BoolQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q BoolQuery) MarshalJSON() ([]byte, error) {
	body := map[string][]Query{}
	if len(q.Must) > 0 {
		body["must"] = q.Must
	}
	if len(q.Should) > 0 {
		body["should"] = q.Should
	}
	if len(q.MustNot) > 0 {
		body["must_not"] = q.MustNot
	}
	if len(q.Filter) > 0 {
		body["filter"] = q.Filter
	}
	return wrap("bool", body)
}

// MultiMatchQuery matches text across several fields.
type MultiMatchQuery struct {
	Query              string
	Type               string
	Fields             []string
	MinimumShouldMatch string
	CutoffFrequency    float64
	Boost              float64
}

func (MultiMatchQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q MultiMatchQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{"query": q.Query}
	if q.Type != "" {
		body["type"] = q.Type
	}
	if len(q.Fields) > 0 {
		body["fields"] = q.Fields
	}
	if q.MinimumShouldMatch != "" {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	if q.CutoffFrequency > 0 {
		body["cutoff_frequency"] = q.CutoffFrequency
	}
	if q.Boost > 0 && q.Boost != 1 {
		body["boost"] = q.Boost
	}
	return wrap("multi_match", body)
}

// MatchQuery matches text in a single field.
type MatchQuery struct {
	Field string
	Query string
}

func (MatchQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q MatchQuery) MarshalJSON() ([]byte, error) {
	return wrap("match", map[string]string{q.Field: q.Query})
}

// TermQuery matches an exact value.
type TermQuery struct {
	Field string
	Value any
}

func (TermQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q TermQuery) MarshalJSON() ([]byte, error) {
	return wrap("term", map[string]any{q.Field: q.Value})
}

// TermsQuery matches any of several exact values.
type TermsQuery struct {
	Field  string
	Values []string
}

func (TermsQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q TermsQuery) MarshalJSON() ([]byte, error) {
	values := q.Values
	if values == nil {
		values = []string{}
	}
	return wrap("terms", map[string][]string{q.Field: values})
}

// FieldValueFactor scores a document by a numeric field times a factor.
type FieldValueFactor struct {
	Field   string
	Factor  float64
	Missing float64
}

// MarshalJSON implements json.Marshaler.
func (f FieldValueFactor) MarshalJSON() ([]byte, error) {
	if math.IsNaN(f.Factor) || math.IsInf(f.Factor, 0) {
		return nil, fmt.Errorf("field_value_factor %s: non-finite factor %v", f.Field, f.Factor)
	}
	return wrap("field_value_factor", map[string]any{
		"field":   f.Field,
		"factor":  f.Factor,
		"missing": f.Missing,
	})
}

// FunctionScoreQuery rescores an inner query with field_value_factor functions.
type FunctionScoreQuery struct {
	Query     Query
	Functions []FieldValueFactor
	ScoreMode string
	BoostMode string
}

func (FunctionScoreQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q FunctionScoreQuery) MarshalJSON() ([]byte, error) {
	return wrap("function_score", map[string]any{
		"query":      q.Query,
		"functions":  q.Functions,
		"score_mode": q.ScoreMode,
		"boost_mode": q.BoostMode,
	})
}

// Aggregation is an aggregation clause.
type Aggregation interface {
	json.Marshaler
	aggregation()
}

// TermsAggregation buckets documents by the values of a keyword field.
type TermsAggregation struct {
	Field string
	Size  int
}

func (TermsAggregation) aggregation() {}

// MarshalJSON implements json.Marshaler.
func (a TermsAggregation) MarshalJSON() ([]byte, error) {
	return wrap("terms", map[string]any{"field": a.Field, "size": a.Size})
}

// Suggester is a named suggester definition.
type Suggester interface {
	json.Marshaler
	suggester()
}

// Suggest is the suggest section: a global text plus named suggesters.
type Suggest struct {
	Text       string
	Suggesters map[string]Suggester
}

// MarshalJSON implements json.Marshaler.
func (s Suggest) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(s.Suggesters)+1)
	if s.Text != "" {
		body["text"] = s.Text
	}
	for name, sg := range s.Suggesters {
		body[name] = sg
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal suggest: %w", err)
	}
	return data, nil
}

// CompletionSuggester suggests completions of a prefix from a completion field.
type CompletionSuggester struct {
	Prefix string
	Field  string
	Size   int
}

func (CompletionSuggester) suggester() {}

// MarshalJSON implements json.Marshaler.
func (c CompletionSuggester) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(map[string]any{
		"prefix": c.Prefix,
		"completion": map[string]any{
			"field": c.Field,
			"size":  c.Size,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion suggester: %w", err)
	}
	return data, nil
}

// DirectGenerator feeds candidate terms to a phrase suggester.
type DirectGenerator struct {
	Field       string `json:"field"`
	SuggestMode string `json:"suggest_mode,omitempty"`
}

// PhraseSuggester suggests corrected phrases.
type PhraseSuggester struct {
	Field      string
	Analyzer   string
	Size       int
	GramSize   int
	Generators []DirectGenerator
}

func (PhraseSuggester) suggester() {}

// MarshalJSON implements json.Marshaler.
func (p PhraseSuggester) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"field": p.Field,
		"size":  p.Size,
	}
	if p.Analyzer != "" {
		body["analyzer"] = p.Analyzer
	}
	if p.GramSize > 0 {
		body["gram_size"] = p.GramSize
	}
	if len(p.Generators) > 0 {
		body["direct_generator"] = p.Generators
	}
	return wrap("phrase", body)
}

func wrap(kind string, body any) ([]byte, error) {
	data, err := json.Marshal(map[string]any{kind: body})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", kind, err)
	}
	return data, nil
}
