package generation

import (
	"context"
	"net/http"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIBackend answers questions through the OpenAI chat completions API.
// It also serves any OpenAI-compatible provider via a custom base URL.
type OpenAIBackend struct {
	providerConfig models.ProviderConfig
	model          string
	clientCache    *clientcache.Cache[*openai.Client]
}

func NewOpenAIBackend(providerConfig models.ProviderConfig) *OpenAIBackend {
	model := providerConfig.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIBackend{
		providerConfig: providerConfig,
		model:          model,
		clientCache:    clientcache.NewCache[*openai.Client](),
	}
}

func (b *OpenAIBackend) Name() string { return "openai" }

func (b *OpenAIBackend) client() (*openai.Client, error) {
	hash, err := configHash(b.providerConfig)
	if err != nil {
		fiberlog.Warnf("OpenAI: config hash failed, building uncached client: %v", err)
		return b.buildClient()
	}
	return b.clientCache.GetOrCreate(hash, func() (*openai.Client, error) {
		fiberlog.Debugf("OpenAI: creating client (config hash: %s)", hash[:8])
		return b.buildClient()
	})
}

func (b *OpenAIBackend) buildClient() (*openai.Client, error) {
	if b.providerConfig.APIKey == "" {
		return nil, models.NewProviderError("openai", "API key not configured", nil)
	}

	opts := []openaiOption.RequestOption{openaiOption.WithAPIKey(b.providerConfig.APIKey)}
	if b.providerConfig.BaseURL != "" {
		opts = append(opts, openaiOption.WithBaseURL(b.providerConfig.BaseURL))
	}
	for key, value := range b.providerConfig.Headers {
		opts = append(opts, openaiOption.WithHeader(key, value))
	}
	if b.providerConfig.TimeoutMs > 0 {
		httpClient := &http.Client{Timeout: time.Duration(b.providerConfig.TimeoutMs) * time.Millisecond}
		opts = append(opts, openaiOption.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(opts...)
	return &client, nil
}

// Generate runs one non-streaming chat completion over the grounded prompt.
func (b *OpenAIBackend) Generate(ctx context.Context, question string, records []models.SearchResult) (*Result, error) {
	client, err := b.client()
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(question, records)),
		},
	}

	startTime := time.Now()
	resp, err := client.Chat.Completions.New(ctx, params)
	duration := time.Since(startTime)

	if err != nil {
		fiberlog.Errorf("OpenAI: completion failed after %v: %v", duration, err)
		return nil, models.NewProviderError("openai", "completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, models.NewProviderError("openai", "completion response had no choices", nil)
	}

	fiberlog.Infof("OpenAI: completion in %v - usage: prompt:%d, completion:%d",
		duration, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return &Result{
		Answer:         resp.Choices[0].Message.Content,
		PromptTokens:   resp.Usage.PromptTokens,
		ResponseTokens: resp.Usage.CompletionTokens,
	}, nil
}
