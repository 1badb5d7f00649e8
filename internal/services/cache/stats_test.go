package cache

import (
	"context"
	"testing"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderAggregatesWindowedEvents(t *testing.T) {
	db := newTestDB(t)
	recorder := NewRecorder(db, 0.60)
	ctx := context.Background()

	recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeHit, 200)
	recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeHit, 300)
	recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeHit, 500)
	recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeMiss, 0)
	recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeWrite, 0)
	recorder.Record(ctx, models.CacheLayerEmbedding, models.CacheOutcomeHit, 0)
	recorder.Record(ctx, models.CacheLayerEmbedding, models.CacheOutcomeMiss, 0)

	stats, err := recorder.Aggregate(ctx, 24*time.Hour)
	require.NoError(t, err)

	response := stats.Layers[models.CacheLayerResponse]
	assert.EqualValues(t, 3, response.Hits)
	assert.EqualValues(t, 1, response.Misses)
	assert.EqualValues(t, 1, response.Writes)
	assert.InDelta(t, 0.75, response.HitRate, 0.0001)
	assert.EqualValues(t, 1000, response.TokensSaved)

	embedding := stats.Layers[models.CacheLayerEmbedding]
	assert.InDelta(t, 0.5, embedding.HitRate, 0.0001)

	assert.EqualValues(t, 6, stats.TotalRequests, "writes are not lookups")
	assert.EqualValues(t, 4, stats.TotalHits)
	assert.EqualValues(t, 1000, stats.TotalTokensSaved)
	// 1000 tokens at $0.60 per million.
	assert.InDelta(t, 0.0006, stats.EstimatedCostSavingsUSD, 1e-9)
	assert.Equal(t, 24, stats.WindowHours)
}

func TestRecorderWindowExcludesOldEvents(t *testing.T) {
	db := newTestDB(t)
	recorder := NewRecorder(db, 0.60)
	ctx := context.Background()

	old := models.CacheEvent{
		Layer:       models.CacheLayerResponse,
		Outcome:     models.CacheOutcomeHit,
		TokensSaved: 999,
		CreatedAt:   time.Now().Add(-72 * time.Hour),
	}
	require.NoError(t, db.Create(&old).Error)
	recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeMiss, 0)

	stats, err := recorder.Aggregate(ctx, 24*time.Hour)
	require.NoError(t, err)

	response := stats.Layers[models.CacheLayerResponse]
	assert.Zero(t, response.Hits, "events outside the window are excluded")
	assert.EqualValues(t, 1, response.Misses)
	assert.Zero(t, stats.TotalTokensSaved)
}

func TestRecorderFallsBackToLifetimeCounters(t *testing.T) {
	db := newTestDB(t)
	recorder := NewRecorder(db, 0.60)
	ctx := context.Background()

	recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeHit, 100)
	require.NoError(t, db.Close())
	// The post-close record still bumps the in-memory counters.
	recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeMiss, 0)

	stats, err := recorder.Aggregate(ctx, 24*time.Hour)
	require.NoError(t, err, "a broken event table degrades, it does not fail")

	response := stats.Layers[models.CacheLayerResponse]
	assert.EqualValues(t, 1, response.Hits)
	assert.EqualValues(t, 1, response.Misses)
	assert.Zero(t, stats.WindowHours, "lifetime fallback reports a zero window")
}
