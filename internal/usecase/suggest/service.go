// Package suggest serves autocomplete buckets and query suggestions.
package suggest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/engine"
	"github.com/kailas-cloud/topicsearch/internal/query"
)

// Config bounds autocomplete and suggestion sizes.
type Config struct {
	DefaultSize    int
	MaxSize        int
	MaxSuggestions int
}

// Buckets is an autocomplete result.
type Buckets struct {
	Took    int64
	Buckets []engine.Bucket
}

// Suggestions is a suggest result.
type Suggestions struct {
	Took  int64
	Texts []string
}

// Service runs autocomplete and suggest requests.
type Service struct {
	engine    Searcher
	assembler *query.Assembler
	cfg       Config
}

// New creates a suggestion service.
func New(e Searcher, a *query.Assembler, cfg Config) *Service {
	if cfg.DefaultSize < 1 {
		cfg.DefaultSize = 5
	}
	if cfg.MaxSize < cfg.DefaultSize {
		cfg.MaxSize = cfg.DefaultSize
	}
	if cfg.MaxSuggestions < 1 {
		cfg.MaxSuggestions = 5
	}
	return &Service{engine: e, assembler: a, cfg: cfg}
}

// Size clamps a requested bucket count: values outside [1, MaxSize] select
// the default.
func (s *Service) Size(requested int) int {
	if requested < 1 || requested > s.cfg.MaxSize {
		return s.cfg.DefaultSize
	}
	return requested
}

// Autocomplete returns the completion terms for prefix q. size is clamped by Size.
func (s *Service) Autocomplete(ctx context.Context, q string, size int) (Buckets, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Buckets{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidRequest)
	}

	resp, err := s.engine.Search(ctx, &engine.SearchRequest{
		Op:   engine.OpAutocomplete,
		Body: s.assembler.Autocomplete(q, s.Size(size)),
	})
	if err != nil {
		return Buckets{}, fmt.Errorf("autocomplete: %w", err)
	}

	buckets, err := resp.TermsBuckets(query.AggSuggestions)
	if err != nil {
		return Buckets{}, domain.NewEngineQueryError(engine.OpAutocomplete, 0, err.Error())
	}
	if buckets == nil {
		buckets = []engine.Bucket{}
	}
	return Buckets{Took: resp.Took, Buckets: buckets}, nil
}

// Suggest returns completion suggestions followed by phrase corrections,
// cleaned, de-duplicated in order and truncated to MaxSuggestions.
func (s *Service) Suggest(ctx context.Context, q string) (Suggestions, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Suggestions{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidRequest)
	}

	resp, err := s.engine.Search(ctx, &engine.SearchRequest{
		Op:   engine.OpSuggest,
		Body: s.assembler.Suggest(q),
	})
	if err != nil {
		return Suggestions{}, fmt.Errorf("suggest: %w", err)
	}

	var texts []string
	texts = appendOptions(texts, resp.Suggest[query.SuggestCompletion])
	texts = appendOptions(texts, resp.Suggest[query.SuggestPhrase])

	return Suggestions{Took: resp.Took, Texts: dedupe(texts, s.cfg.MaxSuggestions)}, nil
}

// Only the first entry is read: both suggesters run on the whole text.
func appendOptions(dst []string, entries []engine.SuggestEntry) []string {
	if len(entries) == 0 {
		return dst
	}
	for _, opt := range entries[0].Options {
		dst = append(dst, clean(opt.Text))
	}
	return dst
}

var nonWord = regexp.MustCompile(`\W+`)

// clean splits on runs of non-word characters and rejoins with single spaces.
func clean(text string) string {
	parts := nonWord.Split(strings.TrimSpace(text), -1)
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return strings.Join(words, " ")
}

func dedupe(texts []string, limit int) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, limit)
	for _, t := range texts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}
