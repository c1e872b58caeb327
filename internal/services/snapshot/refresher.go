package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hazardwatch/internal/cache"
	"hazardwatch/internal/domain"
	"hazardwatch/internal/observability"
	"hazardwatch/internal/services/aggregator"
)

// Snapshot is the periodically refreshed country-level hazard picture served
// to dashboards without hitting the upstream APIs per request.
type Snapshot struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Region      string                   `json:"region"`
	Context     domain.AggregatedContext `json:"context"`
}

// Refresher keeps a default-region snapshot warm in the cache on a fixed
// interval.
type Refresher struct {
	aggregator *aggregator.Aggregator
	cache      *cache.RedisCache
	metrics    *observability.Metrics
	ticker     *time.Ticker
	done       chan bool
}

func NewRefresher(agg *aggregator.Aggregator, c *cache.RedisCache, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		aggregator: agg,
		cache:      c,
		metrics:    metrics,
		done:       make(chan bool),
	}
}

// Start begins the background refresh loop. The first refresh runs
// immediately so the dashboard is never empty after startup.
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	r.ticker = time.NewTicker(interval)

	go func() {
		if err := r.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("Initial snapshot refresh failed")
		}
		for {
			select {
			case <-r.ticker.C:
				if err := r.Refresh(ctx); err != nil {
					log.Error().Err(err).Msg("Snapshot refresh failed")
				}
			case <-r.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info().Dur("interval", interval).Msg("Snapshot refresher started")
}

// Stop stops the background refresh loop.
func (r *Refresher) Stop() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.done)
	log.Info().Msg("Snapshot refresher stopped")
}

// Refresh gathers fresh default-region context and stores it in the cache.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()

	agg := r.aggregator.Gather(ctx, "current hazard overview", "")
	snap := Snapshot{
		GeneratedAt: time.Now().UTC(),
		Region:      domain.DefaultLabel,
		Context:     agg,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		r.countError()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := r.cache.Set(ctx, cache.SnapshotKey(), data, cache.SnapshotTTL); err != nil {
		r.countError()
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	if r.metrics != nil {
		r.metrics.SnapshotRefreshes.Inc()
	}
	log.Info().
		Dur("duration", time.Since(start)).
		Int("fragments", len(agg.Fragments)).
		Msg("Completed snapshot refresh")
	return nil
}

// Latest returns the cached snapshot, or ErrKeyNotFound when none exists.
func (r *Refresher) Latest(ctx context.Context) (Snapshot, error) {
	data, err := r.cache.Get(ctx, cache.SnapshotKey())
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

func (r *Refresher) countError() {
	if r.metrics == nil {
		return
	}
	r.metrics.SnapshotErrors.Inc()
}
