package config

import (
	"time"

	"github.com/kailas-cloud/topicsearch/internal/query"
	"github.com/kailas-cloud/topicsearch/internal/resilience"
	suggestuc "github.com/kailas-cloud/topicsearch/internal/usecase/suggest"
)

// QueryConfig maps the ranking and suggest sections onto the query assembler.
func (c *Config) QueryConfig() query.Config {
	return query.Config{
		TopicCount:         c.Ranking.TopicCount,
		TopicField:         c.Ranking.TopicField,
		VisibilityField:    c.Ranking.VisibilityField,
		TitleField:         c.Ranking.TitleField,
		BodyField:          c.Ranking.BodyField,
		KeywordsField:      c.Ranking.KeywordsField,
		Projection:         c.Ranking.Projection,
		FirstPageSize:      c.Ranking.FirstPageSize,
		PageSize:           c.Ranking.PageSize,
		MinimumShouldMatch: c.Ranking.MinimumShouldMatch,
		CutoffFrequency:    c.Ranking.CutoffFrequency,
		AuxiliaryTerm:      c.Ranking.AuxiliaryTerm,
		AuxiliaryBoost:     c.Ranking.AuxiliaryBoost,
		CompletionField:    c.Suggest.CompletionField,
		PhraseField:        c.Suggest.PhraseField,
		AutocompleteRaw:    c.Suggest.AutocompleteRaw,
		AutocompleteKey:    c.Suggest.AutocompleteKey,
		SuggestSize:        c.Suggest.MaxSuggestions,
	}
}

// SuggestConfig maps the suggest section onto the suggestion use case.
func (c *Config) SuggestConfig() suggestuc.Config {
	return suggestuc.Config{
		DefaultSize:    c.Suggest.DefaultSize,
		MaxSize:        c.Suggest.MaxSize,
		MaxSuggestions: c.Suggest.MaxSuggestions,
	}
}

// BreakerConfig maps the resilience section onto the engine circuit breaker.
func (c *Config) BreakerConfig() resilience.Config {
	return resilience.Config{
		MinRequests:      c.Resilience.MinRequests,
		FailureRatio:     c.Resilience.FailureRatio,
		OpenTimeout:      time.Duration(c.Resilience.OpenTimeoutSec) * time.Second,
		HalfOpenMaxCalls: c.Resilience.HalfOpenMaxCalls,
	}
}

// PingTimeout bounds the health probe's engine ping.
func (c *Config) PingTimeout() time.Duration {
	return time.Duration(c.Engine.PingTimeoutMs) * time.Millisecond
}
