package cache

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/circuitbreaker"
	"github.com/banko-ai/banko-backend/internal/services/database"

	"github.com/stretchr/testify/require"
)

const testTTL = 24 * time.Hour

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(models.DatabaseConfig{
		Type:     models.SQLite,
		FilePath: ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestBreaker() circuitbreaker.Breaker {
	return circuitbreaker.NewLocal("test", circuitbreaker.DefaultConfig())
}

// fakeProvider derives a deterministic vector from the text so repeated
// embeds of the same text are bit-identical, like the real provider contract.
type fakeProvider struct {
	calls int
	fail  error
}

func (p *fakeProvider) Embed(_ context.Context, text, _ string) (models.Vector, error) {
	p.calls++
	if p.fail != nil {
		return nil, p.fail
	}
	sum := sha256.Sum256([]byte(text))
	v := make(models.Vector, 8)
	for i := range v {
		v[i] = float32(sum[i]) / 255
	}
	return v, nil
}

func (p *fakeProvider) ModelID() string { return "test-embedding-model" }

type fakeSearcher struct {
	calls   int
	results []models.SearchResult
	err     error
}

func (s *fakeSearcher) Search(_ context.Context, _ models.Vector, limit int, _ string) ([]models.SearchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) > limit {
		return s.results[:limit], nil
	}
	return s.results, nil
}

func testRecords() []models.SearchResult {
	return []models.SearchResult{
		{
			ExpenseID:       "exp-001",
			UserID:          "user-1",
			Description:     "flat white",
			Amount:          4.50,
			Merchant:        "Blue Bottle",
			Category:        "Food",
			Date:            "2026-08-01T00:00:00Z",
			PaymentMethod:   "credit card",
			SimilarityScore: 0.93,
		},
		{
			ExpenseID:       "exp-002",
			UserID:          "user-1",
			Description:     "groceries",
			Amount:          87.12,
			Merchant:        "Trader Joe's",
			Category:        "Groceries",
			Date:            "2026-08-02T00:00:00Z",
			PaymentMethod:   "debit card",
			SimilarityScore: 0.81,
		},
	}
}

// expiredMeta produces lifecycle state for an entry whose TTL elapsed a day ago.
func expiredMeta() models.CacheEntryMeta {
	return models.NewCacheEntryMeta(time.Now().Add(-48*time.Hour), testTTL)
}

func TestEmbeddingCacheResolveMemoizes(t *testing.T) {
	db := newTestDB(t)
	provider := &fakeProvider{}
	recorder := NewRecorder(db, 0.60)
	ec := NewEmbeddingCache(db, provider, nil, newTestBreaker(), recorder, testTTL)

	ctx := context.Background()

	first, outcome, err := ec.Resolve(ctx, "how much did I spend on coffee")
	require.NoError(t, err)
	require.Equal(t, models.CacheOutcomeMiss, outcome)
	require.Equal(t, 1, provider.calls)

	second, outcome, err := ec.Resolve(ctx, "how much did I spend on coffee")
	require.NoError(t, err)
	require.Equal(t, models.CacheOutcomeHit, outcome)
	require.Equal(t, 1, provider.calls, "second resolve must not call the provider")
	require.Equal(t, first, second, "cached vector must be bit-identical")

	var entry models.EmbeddingCacheEntry
	key := TextKey(provider.ModelID(), "how much did I spend on coffee")
	require.NoError(t, db.Where("text_hash = ?", key).First(&entry).Error)
	require.EqualValues(t, 1, entry.HitCount)
}

func TestEmbeddingCacheDistinctTextsGetDistinctEntries(t *testing.T) {
	db := newTestDB(t)
	provider := &fakeProvider{}
	ec := NewEmbeddingCache(db, provider, nil, newTestBreaker(), NewRecorder(db, 0), testTTL)

	ctx := context.Background()
	_, _, err := ec.Resolve(ctx, "coffee spend")
	require.NoError(t, err)
	_, _, err = ec.Resolve(ctx, "grocery spend")
	require.NoError(t, err)
	require.Equal(t, 2, provider.calls)

	var count int64
	require.NoError(t, db.Model(&models.EmbeddingCacheEntry{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestEmbeddingCacheProviderFailureIsNotCached(t *testing.T) {
	db := newTestDB(t)
	provider := &fakeProvider{fail: models.NewProviderError("test", "boom", nil)}
	ec := NewEmbeddingCache(db, provider, nil, newTestBreaker(), NewRecorder(db, 0), testTTL)

	_, _, err := ec.Resolve(context.Background(), "question")
	require.Error(t, err)
	require.True(t, models.IsProviderError(err))

	var count int64
	require.NoError(t, db.Model(&models.EmbeddingCacheEntry{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEmbeddingCacheExpiredEntryIsRecomputed(t *testing.T) {
	db := newTestDB(t)
	provider := &fakeProvider{}
	ec := NewEmbeddingCache(db, provider, nil, newTestBreaker(), NewRecorder(db, 0), testTTL)

	key := TextKey(provider.ModelID(), "stale question")
	stale := models.EmbeddingCacheEntry{
		TextHash:       key,
		ModelID:        provider.ModelID(),
		Embedding:      models.Vector{0.5, 0.5},
		CacheEntryMeta: expiredMeta(),
	}
	require.NoError(t, db.Create(&stale).Error)

	_, outcome, err := ec.Resolve(context.Background(), "stale question")
	require.NoError(t, err)
	require.Equal(t, models.CacheOutcomeMiss, outcome, "expired entry must be logically absent")
	require.Equal(t, 1, provider.calls)
}

func TestSearchCacheResolveMemoizesPerKey(t *testing.T) {
	db := newTestDB(t)
	searcher := &fakeSearcher{results: testRecords()}
	sc := NewSearchCache(db, searcher, newTestBreaker(), NewRecorder(db, 0), testTTL)

	ctx := context.Background()
	queryHash := TextKey("test-embedding-model", "coffee spend")
	embedding := models.Vector{1, 0}

	first, outcome, err := sc.Resolve(ctx, queryHash, embedding, 10, "user-1")
	require.NoError(t, err)
	require.Equal(t, models.CacheOutcomeMiss, outcome)
	require.Equal(t, 1, searcher.calls)

	second, outcome, err := sc.Resolve(ctx, queryHash, embedding, 10, "user-1")
	require.NoError(t, err)
	require.Equal(t, models.CacheOutcomeHit, outcome)
	require.Equal(t, 1, searcher.calls, "second resolve must not hit the store")
	require.Equal(t, first, second, "cached results must preserve rows and ordering")

	// A different limit is a different key.
	_, outcome, err = sc.Resolve(ctx, queryHash, embedding, 5, "user-1")
	require.NoError(t, err)
	require.Equal(t, models.CacheOutcomeMiss, outcome)
	require.Equal(t, 2, searcher.calls)

	// So is a different user filter.
	_, outcome, err = sc.Resolve(ctx, queryHash, embedding, 10, "user-2")
	require.NoError(t, err)
	require.Equal(t, models.CacheOutcomeMiss, outcome)
	require.Equal(t, 3, searcher.calls)
}

func TestSearchCacheSearchErrorPropagates(t *testing.T) {
	db := newTestDB(t)
	searcher := &fakeSearcher{err: models.NewStoreError("vector search", nil)}
	sc := NewSearchCache(db, searcher, newTestBreaker(), NewRecorder(db, 0), testTTL)

	_, _, err := sc.Resolve(context.Background(), "hash", models.Vector{1}, 10, "")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.SearchCacheEntry{}).Count(&count).Error)
	require.Zero(t, count, "failed searches must not be cached")
}
