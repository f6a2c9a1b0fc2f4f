package datasource

import (
	"context"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/alpha-lab/internal/timeseries"
)

// CachedSource wraps a PanelSource with an in-memory TTL cache, keyed by
// panel kind and date range. Backtest sweeps re-fetch the same panels many
// times; the cache keeps provider traffic flat.
type CachedSource struct {
	source PanelSource
	cache  *cache.Cache
	ttl    time.Duration
}

// NewCachedSource wraps a source with a TTL cache.
func NewCachedSource(source PanelSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, ttl*2),
		ttl:    ttl,
	}
}

// Name returns the wrapped source's name.
func (c *CachedSource) Name() string {
	return c.source.Name()
}

// IsEnabled returns whether the wrapped source is enabled.
func (c *CachedSource) IsEnabled() bool {
	return c.source.IsEnabled()
}

// FetchPrices retrieves the price panel, serving from cache when fresh.
func (c *CachedSource) FetchPrices(ctx context.Context, startDate, endDate time.Time) (*timeseries.Panel, error) {
	return c.fetch(ctx, "prices", startDate, endDate, c.source.FetchPrices)
}

// FetchSignals retrieves the signal panel, serving from cache when fresh.
func (c *CachedSource) FetchSignals(ctx context.Context, startDate, endDate time.Time) (*timeseries.Panel, error) {
	return c.fetch(ctx, "signals", startDate, endDate, c.source.FetchSignals)
}

func (c *CachedSource) fetch(
	ctx context.Context,
	kind string,
	startDate, endDate time.Time,
	load func(context.Context, time.Time, time.Time) (*timeseries.Panel, error),
) (*timeseries.Panel, error) {
	key := cacheKey(kind, startDate, endDate)
	if cached, found := c.cache.Get(key); found {
		if panel, ok := cached.(*timeseries.Panel); ok {
			return panel, nil
		}
	}

	panel, err := load(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, panel, c.ttl)
	return panel, nil
}

// Flush drops all cached panels.
func (c *CachedSource) Flush() {
	c.cache.Flush()
}

func cacheKey(kind string, startDate, endDate time.Time) string {
	return fmt.Sprintf("%s:%d:%d", kind, startDate.Unix(), endDate.Unix())
}
