package db

import (
	"context"
	"time"
)

// Store is the counter store behind usage tracking.
type Store interface {
	Pinger
	Counters
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counters reads and bumps integer counters.
type Counters interface {
	// MGet returns the raw values of keys in order; missing keys are nil.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	// IncrWithTTL adds delta to key and sets ttl only when the key has no
	// expiry yet, so repeated increments never extend it.
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}
