package health

import "context"

// EnginePinger checks search engine availability.
type EnginePinger interface {
	Ping(ctx context.Context) error
}

// UsagePinger checks usage counter store availability.
type UsagePinger interface {
	Ping(ctx context.Context) error
}
