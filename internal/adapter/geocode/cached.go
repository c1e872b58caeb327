package geocode

import (
	"context"
	"encoding/json"

	"hazardwatch/internal/cache"
)

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Forward(ctx context.Context, place string) (Result, error)
}

// CachedGeocoder wraps a Geocoder with a Redis-backed cache. Place names are
// stable, so results are kept for a long TTL.
type CachedGeocoder struct {
	inner Geocoder
	cache *cache.RedisCache
}

func NewCachedGeocoder(inner Geocoder, c *cache.RedisCache) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: c}
}

func (g *CachedGeocoder) Forward(ctx context.Context, place string) (Result, error) {
	key := cache.GeocodeKey(place)
	if data, err := g.cache.Get(ctx, key); err == nil {
		var cached Result
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	result, err := g.inner.Forward(ctx, place)
	if err != nil {
		return result, err
	}
	// Only successful lookups are cached so transient failures can be retried.
	_ = g.cache.Set(ctx, key, result, cache.GeocodeTTL)
	return result, nil
}
