package generation

import (
	"context"
	"strings"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/utils/clientcache"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicBackend answers questions through the Anthropic Messages API.
type AnthropicBackend struct {
	providerConfig models.ProviderConfig
	model          string
	clientCache    *clientcache.Cache[*anthropic.Client]
}

func NewAnthropicBackend(providerConfig models.ProviderConfig) *AnthropicBackend {
	model := providerConfig.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicBackend{
		providerConfig: providerConfig,
		model:          model,
		clientCache:    clientcache.NewCache[*anthropic.Client](),
	}
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) client() (*anthropic.Client, error) {
	hash, err := configHash(b.providerConfig)
	if err != nil {
		fiberlog.Warnf("Anthropic: config hash failed, building uncached client: %v", err)
		return b.buildClient()
	}
	return b.clientCache.GetOrCreate(hash, func() (*anthropic.Client, error) {
		fiberlog.Debugf("Anthropic: creating client (config hash: %s)", hash[:8])
		return b.buildClient()
	})
}

func (b *AnthropicBackend) buildClient() (*anthropic.Client, error) {
	if b.providerConfig.APIKey == "" {
		return nil, models.NewProviderError("anthropic", "API key not configured", nil)
	}

	clientOpts := []anthropicOption.RequestOption{
		anthropicOption.WithAPIKey(b.providerConfig.APIKey),
	}
	if b.providerConfig.BaseURL != "" {
		clientOpts = append(clientOpts, anthropicOption.WithBaseURL(b.providerConfig.BaseURL))
	}
	for key, value := range b.providerConfig.Headers {
		clientOpts = append(clientOpts, anthropicOption.WithHeader(key, value))
	}

	client := anthropic.NewClient(clientOpts...)
	return &client, nil
}

// Generate runs one non-streaming message over the grounded prompt.
func (b *AnthropicBackend) Generate(ctx context.Context, question string, records []models.SearchResult) (*Result, error) {
	client, err := b.client()
	if err != nil {
		return nil, err
	}

	if b.providerConfig.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(b.providerConfig.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: defaultAnthropicMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(question, records))),
		},
	}

	startTime := time.Now()
	message, err := client.Messages.New(ctx, params)
	duration := time.Since(startTime)

	if err != nil {
		fiberlog.Errorf("Anthropic: message request failed after %v: %v", duration, err)
		return nil, models.NewProviderError("anthropic", "message request failed", err)
	}

	var answer strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	if answer.Len() == 0 {
		return nil, models.NewProviderError("anthropic", "message response had no text content", nil)
	}

	fiberlog.Infof("Anthropic: message in %v - usage: input:%d, output:%d",
		duration, message.Usage.InputTokens, message.Usage.OutputTokens)

	return &Result{
		Answer:         answer.String(),
		PromptTokens:   message.Usage.InputTokens,
		ResponseTokens: message.Usage.OutputTokens,
	}, nil
}
