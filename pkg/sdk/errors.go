package topicsearch

import "github.com/kailas-cloud/topicsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest    = domain.ErrInvalidRequest
	ErrEngineUnavailable = domain.ErrEngineUnavailable
	ErrEngineQuery       = domain.ErrEngineQuery
	ErrUsageUnavailable  = domain.ErrUsageUnavailable
)
