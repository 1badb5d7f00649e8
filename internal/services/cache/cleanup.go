package cache

import (
	"context"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/database"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Cleaner physically removes rows whose TTL has elapsed. Reads never depend
// on it running: expiry is enforced lazily at lookup time, cleanup only
// reclaims space. Each table is swept in its own statement so one sweep never
// holds locks across layers.
type Cleaner struct {
	embedding store[models.EmbeddingCacheEntry]
	search    store[models.SearchCacheEntry]
	response  store[models.ResponseCacheEntry]
}

func NewCleaner(db *database.DB) *Cleaner {
	return &Cleaner{
		embedding: store[models.EmbeddingCacheEntry]{db: db},
		search:    store[models.SearchCacheEntry]{db: db},
		response:  store[models.ResponseCacheEntry]{db: db},
	}
}

// Cleanup sweeps all three cache tables and reports per-layer removal counts.
// A failing layer aborts with what was counted so far; unexpired rows are
// never touched.
func (c *Cleaner) Cleanup(ctx context.Context) (models.CleanupResult, error) {
	now := time.Now()
	var result models.CleanupResult
	var err error

	if result.Embedding, err = c.embedding.deleteExpired(ctx, now); err != nil {
		return result, err
	}
	if result.Search, err = c.search.deleteExpired(ctx, now); err != nil {
		return result, err
	}
	if result.Response, err = c.response.deleteExpired(ctx, now); err != nil {
		return result, err
	}

	fiberlog.Infof("CacheCleanup: removed %d expired entries (embedding=%d search=%d response=%d)",
		result.Total(), result.Embedding, result.Search, result.Response)
	return result, nil
}

// RunPeriodic sweeps on the given interval until ctx is canceled. Intended to
// be started as a goroutine alongside the server; the on-demand endpoint
// shares the same Cleanup path.
func (c *Cleaner) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Cleanup(ctx); err != nil {
				fiberlog.Warnf("CacheCleanup: periodic sweep failed: %v", err)
			}
		}
	}
}
