package ranking

import (
	"context"

	"github.com/kailas-cloud/topicsearch/internal/engine"
)

// Searcher executes engine search requests.
type Searcher interface {
	Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error)
}
