package cache

import (
	"context"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/circuitbreaker"
	"github.com/banko-ai/banko-backend/internal/services/database"
	"github.com/banko-ai/banko-backend/internal/services/vectorsearch"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// SearchCache memoizes ranked similarity queries. The key is the hash of the
// originating text plus every parameter that changes the result set (limit,
// user filter), so differently shaped queries never collide.
type SearchCache struct {
	store    store[models.SearchCacheEntry]
	searcher vectorsearch.Searcher
	breaker  circuitbreaker.Breaker
	recorder *Recorder
	ttl      time.Duration
}

func NewSearchCache(db *database.DB, searcher vectorsearch.Searcher, breaker circuitbreaker.Breaker, recorder *Recorder, ttl time.Duration) *SearchCache {
	return &SearchCache{
		store:    store[models.SearchCacheEntry]{db: db},
		searcher: searcher,
		breaker:  breaker,
		recorder: recorder,
		ttl:      ttl,
	}
}

// Resolve returns the ranked result set for the query, served from cache when
// a fresh entry exists and executed against the store otherwise. queryHash
// must be the TextKey of the question text; a hit returns exactly the rows
// and ordering the original query produced.
func (c *SearchCache) Resolve(ctx context.Context, queryHash string, embedding models.Vector, limit int, userID string) ([]models.SearchResult, models.CacheOutcome, error) {
	storeHealthy := c.breaker.CanExecute()
	cond := "query_hash = ? AND result_limit = ? AND user_id = ?"

	if storeHealthy {
		entry, found, err := c.store.get(ctx, cond, queryHash, limit, userID)
		switch {
		case err != nil:
			fiberlog.Warnf("SearchCache: lookup failed, querying without cache: %v", err)
			c.breaker.RecordFailure()
			storeHealthy = false
		case found:
			c.breaker.RecordSuccess()
			if err := c.store.touch(ctx, time.Now(), cond, queryHash, limit, userID); err != nil {
				fiberlog.Warnf("SearchCache: touch failed: %v", err)
			}
			c.recorder.Record(ctx, models.CacheLayerSearch, models.CacheOutcomeHit, 0)
			return entry.Results, models.CacheOutcomeHit, nil
		default:
			c.breaker.RecordSuccess()
		}
	}

	c.recorder.Record(ctx, models.CacheLayerSearch, models.CacheOutcomeMiss, 0)

	results, err := c.searcher.Search(ctx, embedding, limit, userID)
	if err != nil {
		return nil, models.CacheOutcomeMiss, err
	}

	if storeHealthy {
		entry := models.SearchCacheEntry{
			QueryHash:      queryHash,
			ResultLimit:    limit,
			UserID:         userID,
			Results:        results,
			CacheEntryMeta: models.NewCacheEntryMeta(time.Now(), c.ttl),
		}
		if err := c.store.put(context.WithoutCancel(ctx), &entry); err != nil {
			fiberlog.Warnf("SearchCache: write-back failed: %v", err)
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
			c.recorder.Record(ctx, models.CacheLayerSearch, models.CacheOutcomeWrite, 0)
		}
	}

	return results, models.CacheOutcomeMiss, nil
}
