package markets

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/cache"
)

// CachedMetadataClient wraps MetadataClient with a ristretto-backed cache.
// Tick size and minimum order size change rarely, so a long TTL is safe.
type CachedMetadataClient struct {
	client *MetadataClient
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedMetadataClient creates a new cached metadata client.
func NewCachedMetadataClient(client *MetadataClient, cache cache.Cache) *CachedMetadataClient {
	return &CachedMetadataClient{
		client: client,
		cache:  cache,
		ttl:    24 * time.Hour,
	}
}

// TokenMetadata holds cached metadata for a token.
type TokenMetadata struct {
	TickSize     float64
	MinOrderSize float64
	FetchedAt    time.Time
}

// GetTokenMetadata returns token metadata, consulting the cache first.
func (c *CachedMetadataClient) GetTokenMetadata(ctx context.Context, tokenID string) (tickSize, minOrderSize float64, err error) {
	cacheKey := metadataKey(tokenID)

	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if meta, ok := cached.(*TokenMetadata); ok {
				MetadataCacheHitsTotal.Inc()
				return meta.TickSize, meta.MinOrderSize, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	tickSize, minOrderSize, err = c.client.FetchTokenMetadata(ctx, tokenID)
	if err != nil {
		return tickSize, minOrderSize, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, &TokenMetadata{
			TickSize:     tickSize,
			MinOrderSize: minOrderSize,
			FetchedAt:    time.Now(),
		}, c.ttl)
	}

	return tickSize, minOrderSize, nil
}

// UpdateTickSize overwrites the cached tick size after a tick_size_change
// event. A no-op when the token is not cached; the next access fetches the
// current value anyway.
func (c *CachedMetadataClient) UpdateTickSize(tokenID string, newTickSize float64) {
	if c.cache == nil {
		return
	}

	cacheKey := metadataKey(tokenID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		if meta, ok := cached.(*TokenMetadata); ok {
			c.cache.Set(cacheKey, &TokenMetadata{
				TickSize:     newTickSize,
				MinOrderSize: meta.MinOrderSize,
				FetchedAt:    time.Now(),
			}, c.ttl)
		}
	}
}

func metadataKey(tokenID string) string {
	return fmt.Sprintf("metadata:%s", tokenID)
}
