package artifact

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/openuba/model-hub/internal/telemetry"
)

// Cached wraps a Loader with an in-memory TTL cache. Only successful loads
// are cached, so a missing artifact shows up as soon as it is added.
type Cached struct {
	loader *Loader
	cache  *gocache.Cache
}

// NewCached caches loader results for ttl
func NewCached(loader *Loader, ttl time.Duration) *Cached {
	return &Cached{
		loader: loader,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

// Load returns the cached artifact text or reads it through the loader.
func (c *Cached) Load(ctx context.Context, entryPath string, kind Kind) string {
	key := c.loader.ObjectPath(entryPath, kind)

	if v, found := c.cache.Get(key); found {
		if text, ok := v.(string); ok {
			telemetry.ArtifactCacheTotal.WithLabelValues("hit").Inc()
			return text
		}
	}
	telemetry.ArtifactCacheTotal.WithLabelValues("miss").Inc()

	text, err := c.loader.fetch(ctx, entryPath, kind)
	if err != nil {
		return Placeholder
	}
	c.cache.SetDefault(key, text)
	return text
}

// LoadPair loads both artifacts through the cache
func (c *Cached) LoadPair(ctx context.Context, entryPath string) Pair {
	return loadPair(ctx, c, entryPath)
}
