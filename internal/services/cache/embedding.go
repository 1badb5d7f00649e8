package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/circuitbreaker"
	"github.com/banko-ai/banko-backend/internal/services/database"
	"github.com/banko-ai/banko-backend/internal/services/embeddings"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const hotKeyPrefix = "embedding_cache:"

// EmbeddingCache memoizes text-to-vector conversions. A hit returns the
// stored vector bit-for-bit, which keeps downstream text-hash keys stable.
// An optional Redis hot layer fronts the relational store for exact-key reads.
type EmbeddingCache struct {
	store    store[models.EmbeddingCacheEntry]
	provider embeddings.Provider
	hot      *redis.Client
	breaker  circuitbreaker.Breaker
	recorder *Recorder
	ttl      time.Duration
}

func NewEmbeddingCache(db *database.DB, provider embeddings.Provider, hot *redis.Client, breaker circuitbreaker.Breaker, recorder *Recorder, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{
		store:    store[models.EmbeddingCacheEntry]{db: db},
		provider: provider,
		hot:      hot,
		breaker:  breaker,
		recorder: recorder,
		ttl:      ttl,
	}
}

// Key returns the cache key Resolve would use for text. The search layer
// reuses it so both layers key off the same text identity.
func (c *EmbeddingCache) Key(text string) string {
	return TextKey(c.provider.ModelID(), text)
}

// Resolve returns the embedding for text, from cache when possible and from
// the provider otherwise. Provider failures propagate and are never cached;
// store failures degrade to computing without caching.
func (c *EmbeddingCache) Resolve(ctx context.Context, text string) (models.Vector, models.CacheOutcome, error) {
	if text == "" {
		return nil, models.CacheOutcomeMiss, models.NewValidationError("cannot resolve embedding for empty text", nil)
	}

	modelID := c.provider.ModelID()
	key := TextKey(modelID, text)
	storeHealthy := c.breaker.CanExecute()

	if storeHealthy {
		if vector, ok := c.hotGet(ctx, key); ok {
			// Bookkeeping lives in the relational row even on hot hits.
			if err := c.store.touch(ctx, time.Now(), "text_hash = ?", key); err != nil {
				fiberlog.Warnf("EmbeddingCache: touch after hot hit failed: %v", err)
			}
			c.recorder.Record(ctx, models.CacheLayerEmbedding, models.CacheOutcomeHit, 0)
			return vector, models.CacheOutcomeHit, nil
		}

		entry, found, err := c.store.get(ctx, "text_hash = ?", key)
		switch {
		case err != nil:
			fiberlog.Warnf("EmbeddingCache: lookup failed, computing without cache: %v", err)
			c.breaker.RecordFailure()
			storeHealthy = false
		case found:
			c.breaker.RecordSuccess()
			if err := c.store.touch(ctx, time.Now(), "text_hash = ?", key); err != nil {
				fiberlog.Warnf("EmbeddingCache: touch failed: %v", err)
			}
			c.hotSet(ctx, key, entry.Embedding)
			c.recorder.Record(ctx, models.CacheLayerEmbedding, models.CacheOutcomeHit, 0)
			return entry.Embedding, models.CacheOutcomeHit, nil
		default:
			c.breaker.RecordSuccess()
		}
	}

	c.recorder.Record(ctx, models.CacheLayerEmbedding, models.CacheOutcomeMiss, 0)

	vector, err := c.provider.Embed(ctx, text, modelID)
	if err != nil {
		return nil, models.CacheOutcomeMiss, err
	}

	if storeHealthy {
		entry := models.EmbeddingCacheEntry{
			TextHash:       key,
			ModelID:        modelID,
			Embedding:      vector,
			CacheEntryMeta: models.NewCacheEntryMeta(time.Now(), c.ttl),
		}
		// Detached context: a caller giving up mid-request must not lose a
		// vector that was already paid for.
		writeCtx := context.WithoutCancel(ctx)
		if err := c.store.put(writeCtx, &entry); err != nil {
			fiberlog.Warnf("EmbeddingCache: write-back failed: %v", err)
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
			c.hotSet(writeCtx, key, vector)
			c.recorder.Record(ctx, models.CacheLayerEmbedding, models.CacheOutcomeWrite, 0)
		}
	}

	return vector, models.CacheOutcomeMiss, nil
}

func (c *EmbeddingCache) hotGet(ctx context.Context, key string) (models.Vector, bool) {
	if c.hot == nil {
		return nil, false
	}
	raw, err := c.hot.Get(ctx, hotKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			fiberlog.Debugf("EmbeddingCache: hot layer read failed: %v", err)
		}
		return nil, false
	}
	var vector models.Vector
	if err := json.Unmarshal(raw, &vector); err != nil {
		fiberlog.Warnf("EmbeddingCache: hot layer entry corrupt, ignoring: %v", err)
		return nil, false
	}
	return vector, true
}

func (c *EmbeddingCache) hotSet(ctx context.Context, key string, vector models.Vector) {
	if c.hot == nil {
		return
	}
	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.hot.Set(ctx, hotKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		fiberlog.Debugf("EmbeddingCache: hot layer write failed: %v", err)
	}
}
