// Package ask orchestrates the question answering pipeline: resolve the
// question embedding, look for a reusable answer, otherwise fetch grounding
// records and generate a fresh one, caching every intermediate along the way.
package ask

import (
	"context"
	"strings"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/cache"
	"github.com/banko-ai/banko-backend/internal/services/generation"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	defaultResultLimit = 10
	maxResultLimit     = 50
)

// BackendResolver maps a requested provider name to a generation backend.
// *generation.Registry is the production implementation.
type BackendResolver interface {
	Resolve(requested string) (generation.Backend, error)
}

// Service runs one question through the cache layers and, on a response-cache
// miss, through a generation backend.
type Service struct {
	cache    *cache.Service
	registry BackendResolver
}

func NewService(cacheSvc *cache.Service, registry BackendResolver) *Service {
	return &Service{
		cache:    cacheSvc,
		registry: registry,
	}
}

// Ask answers one question. The layers are consulted in order; a response
// cache hit short-circuits generation entirely, while cache degradation of
// any kind falls through to the uncached path.
func (s *Service) Ask(ctx context.Context, req *models.AskRequest, requestID string) (*models.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, models.NewValidationError("question cannot be empty", nil)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultResultLimit
	}
	if limit > maxResultLimit {
		limit = maxResultLimit
	}

	backend, err := s.registry.Resolve(req.Provider)
	if err != nil {
		return nil, err
	}
	provider := backend.Name()

	embedding, embeddingOutcome, err := s.cache.Embeddings.Resolve(ctx, question)
	if err != nil {
		return nil, err
	}
	fiberlog.Debugf("[%s] Ask: embedding %s for %q", requestID, embeddingOutcome, question)

	queryHash := s.cache.Embeddings.Key(question)
	records, searchOutcome, err := s.cache.Search.Resolve(ctx, queryHash, embedding, limit, req.UserID)
	if err != nil {
		return nil, err
	}
	fiberlog.Debugf("[%s] Ask: search %s, %d grounding records", requestID, searchOutcome, len(records))

	fingerprint := cache.Fingerprint(records)

	if entry, score, ok := s.cache.Responses.Find(ctx, embedding, provider, fingerprint); ok {
		fiberlog.Infof("[%s] Ask: response cache hit at similarity %.3f, %d tokens saved",
			requestID, score, entry.TokensTotal())
		return &models.AskResponse{
			Answer:         entry.ResponseText,
			Provider:       provider,
			Cached:         true,
			Similarity:     score,
			Confidence:     models.ConfidenceForScore(score),
			Sources:        records,
			PromptTokens:   entry.PromptTokens,
			ResponseTokens: entry.ResponseTokens,
			TokensSaved:    entry.TokensTotal(),
		}, nil
	}

	result, err := backend.Generate(ctx, question, records)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Responses.Put(ctx, question, embedding, provider, fingerprint, result.Answer, result.PromptTokens, result.ResponseTokens); err != nil {
		// A failed write never fails the answer that was already generated.
		fiberlog.Warnf("[%s] Ask: response cache write failed: %v", requestID, err)
	}

	fiberlog.Infof("[%s] Ask: generated fresh answer via %s (prompt:%d response:%d tokens)",
		requestID, provider, result.PromptTokens, result.ResponseTokens)

	return &models.AskResponse{
		Answer:         result.Answer,
		Provider:       provider,
		Cached:         false,
		Confidence:     models.ConfidenceForScore(1.0),
		Sources:        records,
		PromptTokens:   result.PromptTokens,
		ResponseTokens: result.ResponseTokens,
	}, nil
}
