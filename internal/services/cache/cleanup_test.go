package cache

import (
	"context"
	"testing"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupRemovesExactlyTheExpiredRows(t *testing.T) {
	db := newTestDB(t)
	cleaner := NewCleaner(db)
	ctx := context.Background()

	fresh := models.NewCacheEntryMeta(time.Now(), testTTL)

	require.NoError(t, db.Create(&models.EmbeddingCacheEntry{
		TextHash: "expired-1", ModelID: "m", Embedding: models.Vector{1}, CacheEntryMeta: expiredMeta(),
	}).Error)
	require.NoError(t, db.Create(&models.EmbeddingCacheEntry{
		TextHash: "expired-2", ModelID: "m", Embedding: models.Vector{1}, CacheEntryMeta: expiredMeta(),
	}).Error)
	require.NoError(t, db.Create(&models.EmbeddingCacheEntry{
		TextHash: "fresh-1", ModelID: "m", Embedding: models.Vector{1}, CacheEntryMeta: fresh,
	}).Error)

	require.NoError(t, db.Create(&models.SearchCacheEntry{
		QueryHash: "expired", ResultLimit: 10, Results: testRecords(), CacheEntryMeta: expiredMeta(),
	}).Error)
	require.NoError(t, db.Create(&models.SearchCacheEntry{
		QueryHash: "fresh", ResultLimit: 10, Results: testRecords(), CacheEntryMeta: fresh,
	}).Error)

	require.NoError(t, db.Create(&models.ResponseCacheEntry{
		QuestionText: "expired", QuestionEmbedding: models.Vector{1}, Provider: "openai",
		DataFingerprint: "fp", ResponseText: "a", CacheEntryMeta: expiredMeta(),
	}).Error)

	result, err := cleaner.Cleanup(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Embedding)
	assert.EqualValues(t, 1, result.Search)
	assert.EqualValues(t, 1, result.Response)
	assert.EqualValues(t, 4, result.Total())

	var embeddingCount, searchCount, responseCount int64
	require.NoError(t, db.Model(&models.EmbeddingCacheEntry{}).Count(&embeddingCount).Error)
	require.NoError(t, db.Model(&models.SearchCacheEntry{}).Count(&searchCount).Error)
	require.NoError(t, db.Model(&models.ResponseCacheEntry{}).Count(&responseCount).Error)
	assert.EqualValues(t, 1, embeddingCount, "unexpired embedding entries stay")
	assert.EqualValues(t, 1, searchCount, "unexpired search entries stay")
	assert.Zero(t, responseCount)
}

func TestCleanupOnEmptyTables(t *testing.T) {
	db := newTestDB(t)
	cleaner := NewCleaner(db)

	result, err := cleaner.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total())
}
