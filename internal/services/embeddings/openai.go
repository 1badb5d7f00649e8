package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
)

const defaultEmbedTimeout = 30 * time.Second

// OpenAIProvider generates embeddings through the OpenAI embeddings API.
type OpenAIProvider struct {
	client     openai.Client
	model      string
	dimensions int
	timeout    time.Duration
}

// NewOpenAIProvider creates an embedding provider from the configured
// credentials. The model and dimensionality are fixed per deployment; mixing
// models in one table is prevented by keying cache entries on the model id.
func NewOpenAIProvider(providerCfg models.ProviderConfig, cacheCfg models.CacheConfig) (*OpenAIProvider, error) {
	if providerCfg.APIKey == "" {
		return nil, fmt.Errorf("embeddings API key not set")
	}

	opts := []openaiOption.RequestOption{openaiOption.WithAPIKey(providerCfg.APIKey)}
	if providerCfg.BaseURL != "" {
		opts = append(opts, openaiOption.WithBaseURL(providerCfg.BaseURL))
	}
	for key, value := range providerCfg.Headers {
		opts = append(opts, openaiOption.WithHeader(key, value))
	}

	model := cacheCfg.EmbeddingModel
	if model == "" {
		model = models.DefaultEmbeddingModel
	}
	dimensions := cacheCfg.EmbeddingDimensions
	if dimensions == 0 {
		dimensions = models.DefaultEmbeddingDimensions
	}
	timeout := defaultEmbedTimeout
	if providerCfg.TimeoutMs > 0 {
		timeout = time.Duration(providerCfg.TimeoutMs) * time.Millisecond
	}

	fiberlog.Infof("Embeddings: Using OpenAI model %s (%d dimensions)", model, dimensions)

	return &OpenAIProvider{
		client:     openai.NewClient(opts...),
		model:      model,
		dimensions: dimensions,
		timeout:    timeout,
	}, nil
}

// ModelID returns the default embedding model identifier.
func (p *OpenAIProvider) ModelID() string { return p.model }

// Embed converts text into a vector. Failures surface as provider errors and
// are never written to the cache.
func (p *OpenAIProvider) Embed(ctx context.Context, text, modelID string) (models.Vector, error) {
	if text == "" {
		return nil, models.NewValidationError("cannot embed empty text", nil)
	}
	if modelID == "" {
		modelID = p.model
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: openai.EmbeddingModel(modelID),
	}
	if p.dimensions > 0 {
		params.Dimensions = openai.Int(int64(p.dimensions))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, models.NewProviderError("openai", "embedding request failed", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, models.NewProviderError("openai", "embedding response was empty", nil)
	}

	raw := resp.Data[0].Embedding
	vector := make(models.Vector, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}
	return vector, nil
}
