package cache

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

const (
	GeocodeTTL  = 24 * time.Hour
	WeatherTTL  = 10 * time.Minute
	SnapshotTTL = 30 * time.Minute
)

// GeocodeKey generates the Redis key for a forward-geocode result.
func GeocodeKey(place string) string {
	hash := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(place))))
	return fmt.Sprintf("hazard:geocode:%x", hash)
}

// WeatherKey generates the Redis key for a city weather report.
func WeatherKey(city string) string {
	hash := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(city))))
	return fmt.Sprintf("hazard:weather:%x", hash)
}

// SnapshotKey is the Redis key for the default-region dashboard snapshot.
func SnapshotKey() string {
	return "hazard:snapshot:default"
}
