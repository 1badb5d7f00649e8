package ask

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/cache"
	"github.com/banko-ai/banko-backend/internal/services/database"
	"github.com/banko-ai/banko-backend/internal/services/generation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{ calls int }

func (p *fakeProvider) Embed(_ context.Context, text, _ string) (models.Vector, error) {
	p.calls++
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
}

func (s *fakeSearcher) Search(_ context.Context, _ models.Vector, limit int, _ string) ([]models.SearchResult, error) {
	s.calls++
	if len(s.results) > limit {
		return s.results[:limit], nil
	}
	return s.results, nil
}

type fakeBackend struct {
	calls  int
	answer string
}

func (b *fakeBackend) Name() string { return "openai" }

func (b *fakeBackend) Generate(_ context.Context, _ string, _ []models.SearchResult) (*generation.Result, error) {
	b.calls++
	return &generation.Result{Answer: b.answer, PromptTokens: 120, ResponseTokens: 80}, nil
}

type fakeResolver struct{ backend *fakeBackend }

func (r *fakeResolver) Resolve(string) (generation.Backend, error) { return r.backend, nil }

func newTestPipeline(t *testing.T) (*Service, *fakeProvider, *fakeSearcher, *fakeBackend) {
	t.Helper()

	db, err := database.New(models.DatabaseConfig{Type: models.SQLite, FilePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	provider := &fakeProvider{}
	searcher := &fakeSearcher{results: []models.SearchResult{
		{
			ExpenseID: "exp-001", UserID: "user-1", Description: "flat white",
			Amount: 4.50, Merchant: "Blue Bottle", Category: "Food",
			Date: "2026-08-01T00:00:00Z", PaymentMethod: "credit card", SimilarityScore: 0.93,
		},
	}}
	backend := &fakeBackend{answer: "You spent $4.50 on coffee."}

	cacheSvc := cache.NewService(db, nil, models.CacheConfig{}, provider, searcher)
	return NewService(cacheSvc, &fakeResolver{backend: backend}), provider, searcher, backend
}

func TestAskGeneratesThenServesFromCache(t *testing.T) {
	svc, provider, searcher, backend := newTestPipeline(t)
	ctx := context.Background()
	req := &models.AskRequest{Question: "how much did I spend on coffee?"}

	first, err := svc.Ask(ctx, req, "req-1")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "You spent $4.50 on coffee.", first.Answer)
	assert.Equal(t, models.ConfidenceHigh, first.Confidence)
	assert.EqualValues(t, 120, first.PromptTokens)
	assert.EqualValues(t, 80, first.ResponseTokens)
	assert.Equal(t, 1, backend.calls)

	second, err := svc.Ask(ctx, req, "req-2")
	require.NoError(t, err)
	assert.True(t, second.Cached, "identical question must be served from the response cache")
	assert.Equal(t, first.Answer, second.Answer)
	assert.InDelta(t, 1.0, second.Similarity, 0.001)
	assert.EqualValues(t, 200, second.TokensSaved)
	assert.Equal(t, 1, backend.calls, "cached answer must not trigger generation")
	assert.Equal(t, 1, provider.calls, "embedding must come from its cache on the second ask")
	assert.Equal(t, 1, searcher.calls, "search must come from its cache on the second ask")
}

func TestAskRegeneratesWhenGroundingDataChanges(t *testing.T) {
	svc, _, searcher, backend := newTestPipeline(t)
	ctx := context.Background()

	_, err := svc.Ask(ctx, &models.AskRequest{Question: "how much did I spend on coffee?"}, "req-1")
	require.NoError(t, err)
	require.Equal(t, 1, backend.calls)

	// Same meaning, different wording: new search-cache key, and the
	// underlying record has changed, so strict mode must regenerate.
	searcher.results[0].Amount = 9.99
	resp, err := svc.Ask(ctx, &models.AskRequest{Question: "what did my coffee habit cost?"}, "req-2")
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, 2, backend.calls)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	svc, _, _, _ := newTestPipeline(t)

	_, err := svc.Ask(context.Background(), &models.AskRequest{Question: "   "}, "req-1")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrorTypeValidation))
}

func TestAskIncludesSources(t *testing.T) {
	svc, _, _, _ := newTestPipeline(t)

	resp, err := svc.Ask(context.Background(), &models.AskRequest{Question: "coffee?"}, "req-1")
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "exp-001", resp.Sources[0].ExpenseID)
}
