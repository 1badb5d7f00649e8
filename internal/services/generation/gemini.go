package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiBackend answers questions through the Gemini GenerateContent API.
type GeminiBackend struct {
	providerConfig models.ProviderConfig
	model          string
	clientCache    *clientcache.Cache[*genai.Client]
}

func NewGeminiBackend(providerConfig models.ProviderConfig) *GeminiBackend {
	model := providerConfig.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiBackend{
		providerConfig: providerConfig,
		model:          model,
		clientCache:    clientcache.NewCache[*genai.Client](),
	}
}

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) client(ctx context.Context) (*genai.Client, error) {
	hash, err := configHash(b.providerConfig)
	if err != nil {
		fiberlog.Warnf("Gemini: config hash failed, building uncached client: %v", err)
		return b.buildClient(ctx)
	}
	return b.clientCache.GetOrCreate(hash, func() (*genai.Client, error) {
		fiberlog.Debugf("Gemini: creating client (config hash: %s)", hash[:8])
		return b.buildClient(ctx)
	})
}

func (b *GeminiBackend) buildClient(ctx context.Context) (*genai.Client, error) {
	if b.providerConfig.APIKey == "" {
		return nil, models.NewProviderError("gemini", "API key not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.providerConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Generate runs one non-streaming generate request over the grounded prompt.
// Gemini omits usage numbers on some responses; those fall back to estimates
// so savings accounting never records zero for a real generation.
func (b *GeminiBackend) Generate(ctx context.Context, question string, records []models.SearchResult) (*Result, error) {
	client, err := b.client(ctx)
	if err != nil {
		return nil, err
	}

	if b.providerConfig.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(b.providerConfig.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	prompt := buildPrompt(question, records)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	startTime := time.Now()
	resp, err := client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), config)
	duration := time.Since(startTime)

	if err != nil {
		fiberlog.Errorf("Gemini: generate request failed after %v: %v", duration, err)
		return nil, models.NewProviderError("gemini", "generate request failed", err)
	}

	answer := resp.Text()
	if answer == "" {
		return nil, models.NewProviderError("gemini", "generate response had no text content", nil)
	}

	promptTokens := estimateTokens(prompt)
	responseTokens := estimateTokens(answer)
	if resp.UsageMetadata != nil {
		promptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		responseTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	fiberlog.Infof("Gemini: generate in %v - usage: prompt:%d, response:%d", duration, promptTokens, responseTokens)

	return &Result{
		Answer:         answer,
		PromptTokens:   promptTokens,
		ResponseTokens: responseTokens,
	}, nil
}
