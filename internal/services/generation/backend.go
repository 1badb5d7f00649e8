// Package generation produces grounded answers from transaction records
// through one of the configured model providers. Each backend wraps a native
// SDK; clients are cached per configuration hash so config reloads pick up
// credential changes without leaking connections.
package generation

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/banko-ai/banko-backend/internal/models"
)

// Result is one generated answer with the token accounting the cache layers
// need for savings attribution.
type Result struct {
	Answer         string
	PromptTokens   int64
	ResponseTokens int64
}

// Backend generates an answer for a question grounded on the given records.
type Backend interface {
	// Generate produces an answer. Implementations must honor ctx deadlines.
	Generate(ctx context.Context, question string, records []models.SearchResult) (*Result, error)
	// Name is the provider identifier used in cache keys and responses.
	Name() string
}

// configHash fingerprints the parts of a provider config that require a new
// SDK client when they change. The API key is hashed, never stored raw.
func configHash(providerConfig models.ProviderConfig) (string, error) {
	type configForHash struct {
		BaseURL    string
		TimeoutMs  int
		Headers    map[string]string
		APIKeyHash string
	}

	apiKeyHash := sha256.Sum256([]byte(providerConfig.APIKey))
	hashConfig := configForHash{
		BaseURL:    providerConfig.BaseURL,
		TimeoutMs:  providerConfig.TimeoutMs,
		Headers:    providerConfig.Headers,
		APIKeyHash: fmt.Sprintf("%x", apiKeyHash[:8]),
	}

	configJSON, err := json.Marshal(hashConfig)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(configJSON)
	return fmt.Sprintf("%x", hash[:16]), nil
}

// estimateTokens approximates a token count for providers whose responses
// omit usage numbers. Four characters per token is the usual rule of thumb.
func estimateTokens(text string) int64 {
	return int64(len(text)+3) / 4
}
