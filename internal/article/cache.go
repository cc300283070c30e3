// AngelaMos | 2026
// cache.go

package article

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/minicms/internal/core"
)

// Cache stores public read results. Slot pins a key to the current
// generation; a read resolves its slot once and writes back to that same
// slot, so a result computed before Invalidate can never land in the new
// generation.
type Cache interface {
	Slot(ctx context.Context, key string) (string, error)
	Get(ctx context.Context, slot string, dest any) (bool, error)
	Set(ctx context.Context, slot string, value any) error
	Invalidate(ctx context.Context) error
}

const versionKey = "articles:version"

type redisCache struct {
	rdb *core.Redis
	ttl time.Duration
}

// NewRedisCache namespaces keys under a version counter, so invalidation is
// one INCR and stale entries simply expire.
func NewRedisCache(rdb *core.Redis, ttl time.Duration) Cache {
	return &redisCache{rdb: rdb, ttl: ttl}
}

func (c *redisCache) Slot(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Version(ctx, versionKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("articles:v%d:%s", v, key), nil
}

func (c *redisCache) Get(ctx context.Context, slot string, dest any) (bool, error) {
	return c.rdb.GetJSON(ctx, slot, dest)
}

func (c *redisCache) Set(ctx context.Context, slot string, value any) error {
	return c.rdb.SetJSON(ctx, slot, value, c.ttl)
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Bump(ctx, versionKey)
}

type noopCache struct{}

// NoopCache disables caching.
func NoopCache() Cache {
	return noopCache{}
}

func (noopCache) Slot(context.Context, string) (string, error)   { return "", nil }
func (noopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noopCache) Set(context.Context, string, any) error         { return nil }
func (noopCache) Invalidate(context.Context) error               { return nil }
