package topicsearch

import (
	"context"
	"fmt"

	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
)

// Completion is an autocomplete term and the number of documents carrying it.
type Completion struct {
	Term     string
	DocCount int64
}

// Autocomplete returns up to size completion terms for prefix. A size
// outside 1..10 selects the default of 5.
func (c *Client) Autocomplete(ctx context.Context, prefix string, size int) (_ []Completion, err error) {
	obs := c.obs.begin("autocomplete")
	defer func() { obs.end(err) }()

	res, err := c.suggestSvc.Autocomplete(ctx, prefix, size)
	if err != nil {
		return nil, err
	}
	c.usageSvc.Record(ctx, domusage.EndpointAutocomplete)

	out := make([]Completion, len(res.Buckets))
	for i, b := range res.Buckets {
		out[i] = Completion{Term: fmt.Sprint(b.Key), DocCount: b.DocCount}
	}
	return out, nil
}

// Suggest returns completion and spelling suggestions for text, cleaned
// and de-duplicated.
func (c *Client) Suggest(ctx context.Context, text string) (_ []string, err error) {
	obs := c.obs.begin("suggest")
	defer func() { obs.end(err) }()

	res, err := c.suggestSvc.Suggest(ctx, text)
	if err != nil {
		return nil, err
	}
	c.usageSvc.Record(ctx, domusage.EndpointSuggest)
	return res.Texts, nil
}
