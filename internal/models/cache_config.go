package models

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for an
	// approximate response-cache match when none is configured.
	DefaultSimilarityThreshold = 0.75
	// DefaultTTLHours is the default lifetime of every cache entry.
	DefaultTTLHours = 24
	// DefaultEmbeddingModel is used when no embedding model is configured.
	DefaultEmbeddingModel = "text-embedding-3-small"
	// DefaultEmbeddingDimensions matches the VECTOR(384) column of the
	// expenses table.
	DefaultEmbeddingDimensions = 384
)

// CacheConfig holds configuration for the semantic cache layers
type CacheConfig struct {
	// Response-cache behavior
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold,omitzero"` // 0-1, default 0.75
	StrictMode          *bool   `yaml:"strict_mode" json:"strict_mode,omitzero"`                   // require exact data fingerprint match, default true
	TTLHours            int     `yaml:"ttl_hours" json:"ttl_hours,omitzero"`                       // entry lifetime, default 24

	// Embedding configuration
	EmbeddingModel      string `yaml:"embedding_model" json:"embedding_model,omitzero"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions" json:"embedding_dimensions,omitzero"`

	// Optional Redis hot layer for exact-key embedding lookups and
	// circuit breaker state. Empty disables both.
	RedisURL string `yaml:"redis_url" json:"redis_url,omitzero"`

	// Cost accounting: USD per 1M tokens, used for estimated savings.
	PricePerMillionTokens float64 `yaml:"price_per_million_tokens" json:"price_per_million_tokens,omitzero"`
}

// Strict reports whether strict fingerprint matching is enabled (default true).
func (c CacheConfig) Strict() bool {
	if c.StrictMode == nil {
		return true
	}
	return *c.StrictMode
}

// Threshold returns the configured similarity threshold or the default.
func (c CacheConfig) Threshold() float64 {
	if c.SimilarityThreshold == 0 {
		return DefaultSimilarityThreshold
	}
	return c.SimilarityThreshold
}

// TTL returns the configured entry lifetime in hours or the default.
func (c CacheConfig) TTL() int {
	if c.TTLHours == 0 {
		return DefaultTTLHours
	}
	return c.TTLHours
}
