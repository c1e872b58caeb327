package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeKey_NormalizesInput(t *testing.T) {
	assert.Equal(t, GeocodeKey("Kolkata"), GeocodeKey("  kolkata "))
	assert.NotEqual(t, GeocodeKey("Kolkata"), GeocodeKey("Mumbai"))
	assert.Contains(t, GeocodeKey("Kolkata"), "hazard:geocode:")
}

func TestWeatherKey_NormalizesInput(t *testing.T) {
	assert.Equal(t, WeatherKey("Delhi"), WeatherKey("DELHI"))
	assert.Contains(t, WeatherKey("Delhi"), "hazard:weather:")
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *RedisCache

	_, err := c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.NoError(t, c.Set(context.Background(), "k", "v", WeatherTTL))
	assert.NoError(t, c.Del(context.Background(), "k"))
	assert.NoError(t, c.Close())

	// GetOrSet degrades to calling the generator every time.
	calls := 0
	data, err := c.GetOrSet(context.Background(), "k", WeatherTTL, func() (interface{}, error) {
		calls++
		return map[string]int{"n": calls}, nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(data))
}
