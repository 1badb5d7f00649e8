package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/database"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// layerCounters are lock-free lifetime totals for one layer. They back the
// stats endpoint when the event table is unreachable and cost nothing on the
// hot path.
type layerCounters struct {
	hits        atomic.Int64
	misses      atomic.Int64
	writes      atomic.Int64
	tokensSaved atomic.Int64
}

// Recorder observes every cache operation twice: an in-memory counter bump
// and a persisted event row. The rows survive restarts and feed windowed
// aggregation; the counters are the degraded fallback.
type Recorder struct {
	db              *database.DB
	pricePerMillion float64
	counters        map[models.CacheLayer]*layerCounters
}

// NewRecorder creates a recorder. pricePerMillionTokens converts saved tokens
// into the estimated dollar figure on the stats endpoint.
func NewRecorder(db *database.DB, pricePerMillionTokens float64) *Recorder {
	counters := make(map[models.CacheLayer]*layerCounters, len(models.CacheLayers))
	for _, layer := range models.CacheLayers {
		counters[layer] = &layerCounters{}
	}
	return &Recorder{
		db:              db,
		pricePerMillion: pricePerMillionTokens,
		counters:        counters,
	}
}

// Record registers one hit, miss or write. Recording never fails the caller:
// a stats problem is logged and swallowed. The event row is written on a
// detached context so request cancellation cannot lose the observation.
func (r *Recorder) Record(ctx context.Context, layer models.CacheLayer, outcome models.CacheOutcome, tokensSaved int64) {
	c, ok := r.counters[layer]
	if !ok {
		fiberlog.Warnf("CacheStats: unknown layer %q, dropping observation", layer)
		return
	}

	switch outcome {
	case models.CacheOutcomeHit:
		c.hits.Add(1)
		c.tokensSaved.Add(tokensSaved)
	case models.CacheOutcomeMiss:
		c.misses.Add(1)
	case models.CacheOutcomeWrite:
		c.writes.Add(1)
	}

	event := models.CacheEvent{
		Layer:       layer,
		Outcome:     outcome,
		TokensSaved: tokensSaved,
		CreatedAt:   time.Now(),
	}
	if err := r.db.WithContext(context.WithoutCancel(ctx)).Create(&event).Error; err != nil {
		fiberlog.Warnf("CacheStats: failed to persist %s/%s event: %v", layer, outcome, err)
	}
}

type eventAggregate struct {
	Layer   models.CacheLayer
	Outcome models.CacheOutcome
	Events  int64
	Tokens  int64
}

// Aggregate summarizes cache effectiveness over the trailing window. When the
// event table cannot be read the lifetime in-memory counters stand in, so the
// stats endpoint stays useful during a store outage.
func (r *Recorder) Aggregate(ctx context.Context, window time.Duration) (models.CacheStats, error) {
	stats := models.CacheStats{
		WindowHours: int(window.Hours()),
		Layers:      make(map[models.CacheLayer]models.LayerStats, len(models.CacheLayers)),
	}

	var rows []eventAggregate
	err := r.db.WithContext(ctx).
		Model(&models.CacheEvent{}).
		Select("layer, outcome, COUNT(*) AS events, COALESCE(SUM(tokens_saved), 0) AS tokens").
		Where("created_at >= ?", time.Now().Add(-window)).
		Group("layer").Group("outcome").
		Scan(&rows).Error
	if err != nil {
		fiberlog.Warnf("CacheStats: event query failed, serving lifetime counters: %v", err)
		return r.lifetime(), nil
	}

	perLayer := make(map[models.CacheLayer]models.LayerStats, len(models.CacheLayers))
	for _, row := range rows {
		ls := perLayer[row.Layer]
		switch row.Outcome {
		case models.CacheOutcomeHit:
			ls.Hits += row.Events
			ls.TokensSaved += row.Tokens
		case models.CacheOutcomeMiss:
			ls.Misses += row.Events
		case models.CacheOutcomeWrite:
			ls.Writes += row.Events
		}
		perLayer[row.Layer] = ls
	}

	r.fill(&stats, perLayer)
	return stats, nil
}

// lifetime builds stats from the in-memory counters. The window is reported
// as zero to signal process-lifetime scope.
func (r *Recorder) lifetime() models.CacheStats {
	stats := models.CacheStats{
		Layers: make(map[models.CacheLayer]models.LayerStats, len(models.CacheLayers)),
	}

	perLayer := make(map[models.CacheLayer]models.LayerStats, len(models.CacheLayers))
	for layer, c := range r.counters {
		perLayer[layer] = models.LayerStats{
			Hits:        c.hits.Load(),
			Misses:      c.misses.Load(),
			Writes:      c.writes.Load(),
			TokensSaved: c.tokensSaved.Load(),
		}
	}

	r.fill(&stats, perLayer)
	return stats
}

func (r *Recorder) fill(stats *models.CacheStats, perLayer map[models.CacheLayer]models.LayerStats) {
	for _, layer := range models.CacheLayers {
		ls := perLayer[layer]
		if total := ls.Hits + ls.Misses; total > 0 {
			ls.HitRate = float64(ls.Hits) / float64(total)
		}
		stats.Layers[layer] = ls

		stats.TotalRequests += ls.Hits + ls.Misses
		stats.TotalHits += ls.Hits
		stats.TotalTokensSaved += ls.TokensSaved
	}
	if stats.TotalRequests > 0 {
		stats.OverallHitRate = float64(stats.TotalHits) / float64(stats.TotalRequests)
	}
	stats.EstimatedCostSavingsUSD = float64(stats.TotalTokensSaved) / 1_000_000 * r.pricePerMillion
}
