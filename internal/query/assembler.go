// Package query builds every search engine request body used by the service.
package query

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/topicsearch/internal/domain/search/request"
	"github.com/kailas-cloud/topicsearch/internal/domain/topic"
	"github.com/kailas-cloud/topicsearch/internal/engine"
)

// Aggregation and suggester names in request bodies.
const (
	AggSuggestions     = "suggestions"
	SuggestCompletion  = "keyword_suggest"
	SuggestPhrase      = "body_suggest"
	phraseAnalyzer     = "standard"
	phraseGramSize     = 3
	phraseSuggestMode  = "popular"
	idField            = "_id"
	defaultSuggestSize = 5
)

// Config names the index fields and the ranking tuning values.
type Config struct {
	TopicCount         int
	TopicField         string
	VisibilityField    string
	TitleField         string
	BodyField          string
	KeywordsField      string
	Projection         []string
	FirstPageSize      int
	PageSize           int
	MinimumShouldMatch string
	CutoffFrequency    float64
	AuxiliaryTerm      string
	AuxiliaryBoost     float64

	CompletionField string
	PhraseField     string
	AutocompleteRaw string
	AutocompleteKey string
	SuggestSize     int
}

// Assembler turns validated requests and weight vectors into engine requests.
// It holds no per-request state and is safe for concurrent use.
type Assembler struct {
	cfg Config
}

// NewAssembler creates an Assembler.
func NewAssembler(cfg Config) *Assembler {
	if cfg.FirstPageSize < 1 {
		cfg.FirstPageSize = 1
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}
	if cfg.SuggestSize < 1 {
		cfg.SuggestSize = defaultSuggestSize
	}
	return &Assembler{cfg: cfg}
}

// TopicCount returns the length of weight vectors.
func (a *Assembler) TopicCount() int { return a.cfg.TopicCount }

// TopicField returns the document field holding topic vectors.
func (a *Assembler) TopicField() string { return a.cfg.TopicField }

// Window is a result page slice.
type Window struct {
	From int
	Size int
}

// Window maps a 1-indexed page to a slice: page 1 returns the first-page
// size from 0; later pages return page_size hits each.
func (a *Assembler) Window(page int) Window {
	if page <= 1 {
		return Window{From: 0, Size: a.cfg.FirstPageSize}
	}
	return Window{From: (page - 1) * a.cfg.PageSize, Size: a.cfg.PageSize}
}

// Document builds the direct lookup of a single document id.
func (a *Assembler) Document(req request.Request) *engine.SearchBody {
	q := engine.BoolQuery{
		Must: []engine.Query{engine.TermQuery{Field: idField, Value: req.DocumentID()}},
	}
	if req.Visibility() {
		q.Filter = []engine.Query{a.visibility()}
	}
	return &engine.SearchBody{
		From:   0,
		Size:   1,
		Source: engine.Fields(a.cfg.Projection...),
		Query:  q,
	}
}

// Base builds the unboosted full-text query.
func (a *Assembler) Base(req request.Request) engine.Query {
	fields := []string{a.cfg.TitleField, a.cfg.BodyField}
	q := engine.BoolQuery{
		Must: []engine.Query{engine.MultiMatchQuery{
			Query:              req.Query(),
			Type:               engine.MultiMatchBestFields,
			Fields:             fields,
			MinimumShouldMatch: a.cfg.MinimumShouldMatch,
			CutoffFrequency:    a.cfg.CutoffFrequency,
		}},
		Should: []engine.Query{
			engine.MultiMatchQuery{Query: req.Query(), Type: engine.MultiMatchPhrase, Fields: fields},
			engine.MatchQuery{Field: a.cfg.KeywordsField, Query: req.Query()},
		},
	}
	if a.cfg.AuxiliaryTerm != "" {
		q.Should = append(q.Should, engine.MultiMatchQuery{
			Query:  a.cfg.AuxiliaryTerm,
			Fields: fields,
			Boost:  a.cfg.AuxiliaryBoost,
		})
	}
	if ids := req.MustNotIDs(); len(ids) > 0 {
		q.MustNot = []engine.Query{engine.TermsQuery{Field: idField, Values: ids}}
	}
	if req.Visibility() {
		q.Filter = []engine.Query{a.visibility()}
	}
	return q
}

// Search builds the final ranked query for req's page. A nil weights vector
// yields the unboosted query; otherwise the base score is summed with the
// scaled topic boost.
func (a *Assembler) Search(req request.Request, weights topic.Weights) (*engine.SearchBody, error) {
	w := a.Window(req.Page())
	body := &engine.SearchBody{
		From:   w.From,
		Size:   w.Size,
		Source: engine.Fields(a.cfg.Projection...),
		Query:  a.Base(req),
	}
	if weights == nil {
		return body, nil
	}

	fs, err := a.boost(body.Query, weights, engine.BoostModeSum)
	if err != nil {
		return nil, err
	}
	body.Query = fs
	return body, nil
}

// Calibration builds the top-score probe for the unboosted query.
func (a *Assembler) Calibration(base engine.Query) *engine.SearchBody {
	return &engine.SearchBody{Size: 1, Source: engine.NoSource(), Query: base}
}

// Boosted builds the top-score probe for the topic boost alone.
func (a *Assembler) Boosted(base engine.Query, weights topic.Weights) (*engine.SearchBody, error) {
	fs, err := a.boost(base, weights, engine.BoostModeReplace)
	if err != nil {
		return nil, err
	}
	return &engine.SearchBody{Size: 1, Source: engine.NoSource(), Query: fs}, nil
}

// TopicLookup fetches the topic vectors of ids in one request.
func (a *Assembler) TopicLookup(ids []string) *engine.SearchBody {
	return &engine.SearchBody{
		Size:   len(ids),
		Source: engine.Fields(a.cfg.TopicField),
		Query:  engine.TermsQuery{Field: idField, Values: ids},
	}
}

// Autocomplete builds the completion-term aggregation for prefix q.
func (a *Assembler) Autocomplete(q string, size int) *engine.SearchBody {
	return &engine.SearchBody{
		Size:  0,
		Query: engine.TermQuery{Field: a.cfg.AutocompleteKey, Value: q},
		Aggs: map[string]engine.Aggregation{
			AggSuggestions: engine.TermsAggregation{Field: a.cfg.AutocompleteRaw, Size: size},
		},
	}
}

// Suggest builds the completion and phrase suggesters for q.
func (a *Assembler) Suggest(q string) *engine.SearchBody {
	return &engine.SearchBody{
		Size:   0,
		Source: engine.NoSource(),
		Suggest: &engine.Suggest{
			Text: q,
			Suggesters: map[string]engine.Suggester{
				SuggestCompletion: engine.CompletionSuggester{
					Prefix: q,
					Field:  a.cfg.CompletionField,
					Size:   a.cfg.SuggestSize,
				},
				SuggestPhrase: engine.PhraseSuggester{
					Field:    a.cfg.PhraseField,
					Analyzer: phraseAnalyzer,
					Size:     a.cfg.SuggestSize,
					GramSize: phraseGramSize,
					Generators: []engine.DirectGenerator{
						{Field: a.cfg.PhraseField, SuggestMode: phraseSuggestMode},
					},
				},
			},
		},
	}
}

func (a *Assembler) boost(base engine.Query, weights topic.Weights, boostMode string) (engine.Query, error) {
	if weights.Len() != a.cfg.TopicCount {
		return nil, fmt.Errorf("weight vector length %d, want %d", weights.Len(), a.cfg.TopicCount)
	}
	if !weights.IsFinite() {
		return nil, fmt.Errorf("weight vector is not finite")
	}
	functions := make([]engine.FieldValueFactor, weights.Len())
	for t, w := range weights {
		functions[t] = engine.FieldValueFactor{
			Field:  a.cfg.TopicField + "." + strconv.Itoa(t),
			Factor: w,
		}
	}
	return engine.FunctionScoreQuery{
		Query:     base,
		Functions: functions,
		ScoreMode: engine.ScoreModeSum,
		BoostMode: boostMode,
	}, nil
}

func (a *Assembler) visibility() engine.Query {
	return engine.TermQuery{Field: a.cfg.VisibilityField, Value: true}
}
