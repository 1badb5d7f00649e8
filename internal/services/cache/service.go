package cache

import (
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/circuitbreaker"
	"github.com/banko-ai/banko-backend/internal/services/database"
	"github.com/banko-ai/banko-backend/internal/services/embeddings"
	"github.com/banko-ai/banko-backend/internal/services/vectorsearch"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Service bundles the three cache layers with their shared statistics
// recorder and cleanup sweeper. One breaker guards the datastore for all
// layers; when it opens, every layer degrades to pass-through at once.
type Service struct {
	Embeddings *EmbeddingCache
	Search     *SearchCache
	Responses  *ResponseCache
	Stats      *Recorder
	Cleaner    *Cleaner
}

// NewService wires the layers over the shared datastore. redisClient may be
// nil; it only backs the embedding hot layer and shared breaker state.
func NewService(db *database.DB, redisClient *redis.Client, cfg models.CacheConfig, provider embeddings.Provider, searcher vectorsearch.Searcher) *Service {
	ttl := time.Duration(cfg.TTL()) * time.Hour
	breaker := circuitbreaker.New(redisClient, "cache_store")
	recorder := NewRecorder(db, cfg.PricePerMillionTokens)

	fiberlog.Infof("Cache: threshold=%.2f strict=%t ttl=%s", cfg.Threshold(), cfg.Strict(), ttl)

	return &Service{
		Embeddings: NewEmbeddingCache(db, provider, redisClient, breaker, recorder, ttl),
		Search:     NewSearchCache(db, searcher, breaker, recorder, ttl),
		Responses:  NewResponseCache(db, LinearIndex{}, breaker, recorder, ttl, cfg.Threshold(), cfg.Strict()),
		Stats:      recorder,
		Cleaner:    NewCleaner(db),
	}
}
