package cache

import (
	"context"
	"time"
)

// BytesCache is a best-effort byte cache; callers must work without it.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Claimer hands out at-most-one claims per key within a TTL window. Used as
// the authoritative notification dedup (first caller wins, the rest skip).
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
