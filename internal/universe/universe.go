// Package universe resolves the tradable instrument list.
package universe

import (
	"context"
	"time"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/logger"
	"github.com/wonny/stockscan/pkg/redis"
)

// Provider lists the instruments to scan.
type Provider interface {
	Universe(ctx context.Context) ([]contracts.Instrument, error)
}

// snapshotCache is the cache surface the cached provider uses.
type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Cached wraps a Provider with a per-day Redis snapshot so repeated scans
// on the same day skip the upstream scrape.
type Cached struct {
	source Provider
	cache  snapshotCache
	logger *logger.Logger

	now func() time.Time
}

// NewCached creates the caching wrapper. A disabled Redis cache always
// falls through to the source.
func NewCached(source Provider, cache *redis.Cache, log *logger.Logger) *Cached {
	return &Cached{
		source: source,
		cache:  cache,
		logger: log,
		now:    time.Now,
	}
}

// Universe returns today's instrument list, cache-aside.
func (c *Cached) Universe(ctx context.Context) ([]contracts.Instrument, error) {
	key := redis.UniverseKey(c.now().Format("2006-01-02"))

	var cached []contracts.Instrument
	if found, err := c.cache.Get(ctx, key, &cached); err == nil && found && len(cached) > 0 {
		return cached, nil
	}

	instruments, err := c.source.Universe(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, instruments, redis.TTLDaily); err != nil && c.logger != nil {
		c.logger.WithError(err).Warn("Failed to cache universe snapshot")
	}
	return instruments, nil
}
