package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/topicsearch/internal/db"
)

// MGet reads several keys in one round trip. Missing keys yield nil entries.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	arr, err := s.client.Do(ctx, s.client.B().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}

	out := make([][]byte, len(keys))
	for i := 0; i < len(arr) && i < len(out); i++ {
		data, err := arr[i].AsBytes()
		if rueidis.IsRedisNil(err) {
			continue
		}
		if err != nil {
			return nil, &db.Error{Op: db.OpMGet, Key: keys[i], Err: err}
		}
		out[i] = data
	}
	return out, nil
}

// IncrWithTTL pipelines INCRBY and EXPIRE NX in a single round trip and
// returns the counter's new value.
func (s *Store) IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	b := s.client.B()
	res := s.client.DoMulti(ctx,
		b.Incrby().Key(key).Increment(delta).Build(),
		b.Expire().Key(key).Seconds(int64(ttl/time.Second)).Nx().Build(),
	)

	n, err := res[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrWithTTL, Key: key, Err: err}
	}
	if err := res[1].Error(); err != nil {
		return 0, &db.Error{Op: db.OpIncrWithTTL, Key: key, Err: err}
	}
	return n, nil
}
