package cache

import (
	"context"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/circuitbreaker"
	"github.com/banko-ai/banko-backend/internal/services/database"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// ResponseCache memoizes generated answers and serves them to later questions
// whose embeddings are cosine-similar above the configured threshold. In
// strict mode a candidate must additionally carry the same data fingerprint
// as the current question's grounding records, so an answer computed over
// stale data is never reused.
//
// Every failure path fails open: a broken response cache costs tokens, it
// never costs an answer.
type ResponseCache struct {
	store     store[models.ResponseCacheEntry]
	index     NearestNeighborIndex
	breaker   circuitbreaker.Breaker
	recorder  *Recorder
	ttl       time.Duration
	threshold float64
	strict    bool
}

func NewResponseCache(db *database.DB, index NearestNeighborIndex, breaker circuitbreaker.Breaker, recorder *Recorder, ttl time.Duration, threshold float64, strict bool) *ResponseCache {
	if index == nil {
		index = LinearIndex{}
	}
	return &ResponseCache{
		store:     store[models.ResponseCacheEntry]{db: db},
		index:     index,
		breaker:   breaker,
		recorder:  recorder,
		ttl:       ttl,
		threshold: threshold,
		strict:    strict,
	}
}

// Find looks for a reusable answer among fresh entries for the same provider.
// It returns the winning entry and its similarity, or ok=false on a miss. A
// hit bumps the entry's bookkeeping and credits its token total as savings.
func (c *ResponseCache) Find(ctx context.Context, embedding models.Vector, provider, fingerprint string) (*models.ResponseCacheEntry, float64, bool) {
	if !c.breaker.CanExecute() {
		c.recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeMiss, 0)
		return nil, 0, false
	}

	now := time.Now()
	query := c.store.db.WithContext(ctx).
		Where("provider = ?", provider).
		Where("expires_at > ?", now)
	if c.strict {
		query = query.Where("data_fingerprint = ?", fingerprint)
	}

	var candidates []models.ResponseCacheEntry
	if err := query.Find(&candidates).Error; err != nil {
		fiberlog.Warnf("ResponseCache: candidate query failed, treating as miss: %v", err)
		c.breaker.RecordFailure()
		c.recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeMiss, 0)
		return nil, 0, false
	}
	c.breaker.RecordSuccess()

	// Expiry is decided at read time even if the denormalized column lags.
	fresh := candidates[:0]
	for _, candidate := range candidates {
		if !candidate.Expired(now) {
			fresh = append(fresh, candidate)
		}
	}

	best, score, ok := c.index.Nearest(embedding, c.threshold, fresh)
	if !ok {
		c.recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeMiss, 0)
		return nil, 0, false
	}

	winner := fresh[best]
	if err := c.store.touch(ctx, now, "id = ?", winner.ID); err != nil {
		fiberlog.Warnf("ResponseCache: touch failed: %v", err)
	} else {
		winner.HitCount++
		winner.LastAccessed = now
	}

	c.recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeHit, winner.TokensTotal())
	fiberlog.Debugf("ResponseCache: reuse at similarity %.3f (threshold %.2f)", score, c.threshold)
	return &winner, score, true
}

// Put stores a freshly generated answer together with the question embedding
// and the fingerprint of the records it was grounded on. Duplicate semantic
// neighbors are allowed; Find resolves between them by similarity.
func (c *ResponseCache) Put(ctx context.Context, question string, embedding models.Vector, provider, fingerprint, responseText string, promptTokens, responseTokens int64) error {
	if !c.breaker.CanExecute() {
		fiberlog.Debug("ResponseCache: store unavailable, skipping write")
		return nil
	}

	entry := models.ResponseCacheEntry{
		QuestionText:      question,
		QuestionEmbedding: embedding,
		Provider:          provider,
		DataFingerprint:   fingerprint,
		ResponseText:      responseText,
		PromptTokens:      promptTokens,
		ResponseTokens:    responseTokens,
		CacheEntryMeta:    models.NewCacheEntryMeta(time.Now(), c.ttl),
	}

	if err := c.store.put(context.WithoutCancel(ctx), &entry); err != nil {
		c.breaker.RecordFailure()
		return err
	}
	c.breaker.RecordSuccess()
	c.recorder.Record(ctx, models.CacheLayerResponse, models.CacheOutcomeWrite, 0)
	return nil
}

// Threshold exposes the configured similarity floor for response reuse.
func (c *ResponseCache) Threshold() float64 { return c.threshold }

// Strict reports whether fingerprint equality is required for reuse.
func (c *ResponseCache) Strict() bool { return c.strict }
