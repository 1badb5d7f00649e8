package models

import (
	"time"
)

// CacheLayer identifies one of the three cache tables.
type CacheLayer string

const (
	CacheLayerEmbedding CacheLayer = "embedding"
	CacheLayerSearch    CacheLayer = "vector_search"
	CacheLayerResponse  CacheLayer = "response"
)

// CacheLayers lists every layer in pipeline order.
var CacheLayers = []CacheLayer{CacheLayerEmbedding, CacheLayerSearch, CacheLayerResponse}

// CacheOutcome is the result of a single cache operation.
type CacheOutcome string

const (
	CacheOutcomeHit   CacheOutcome = "hit"
	CacheOutcomeMiss  CacheOutcome = "miss"
	CacheOutcomeWrite CacheOutcome = "write"
)

// CacheEntryMeta is the lifecycle state shared by all cache tables. An entry
// is logically absent once now - created_at exceeds its TTL, regardless of
// when cleanup physically deletes the row.
type CacheEntryMeta struct {
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	HitCount     int64     `json:"hit_count"`
	TTLSeconds   int64     `json:"ttl_seconds"`
	// ExpiresAt is denormalized (created_at + ttl) so expiry sweeps are a
	// single indexed comparison on every dialect.
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// Expired reports whether the entry is past its TTL at the given instant.
func (m CacheEntryMeta) Expired(now time.Time) bool {
	return now.Sub(m.CreatedAt) > time.Duration(m.TTLSeconds)*time.Second
}

// NewCacheEntryMeta initializes lifecycle state for a fresh entry.
func NewCacheEntryMeta(now time.Time, ttl time.Duration) CacheEntryMeta {
	return CacheEntryMeta{
		CreatedAt:    now,
		LastAccessed: now,
		HitCount:     0,
		TTLSeconds:   int64(ttl.Seconds()),
		ExpiresAt:    now.Add(ttl),
	}
}

// EmbeddingCacheEntry memoizes one text-to-vector conversion. The key is the
// hash of the exact input text plus the embedding model identifier, so a new
// model never resolves to vectors produced by an old one.
type EmbeddingCacheEntry struct {
	TextHash  string `gorm:"primaryKey;size:64" json:"text_hash"`
	ModelID   string `gorm:"size:128" json:"model_id"`
	Embedding Vector `gorm:"type:text" json:"embedding"`
	CacheEntryMeta
}

// TableName overrides the GORM table name.
func (EmbeddingCacheEntry) TableName() string { return "embedding_cache" }

// SearchCacheEntry memoizes one ranked similarity query. Keyed on the hash of
// the originating text rather than the raw vector bytes: the embedding cache
// already guarantees same text means bit-identical vector, and text hashes
// don't suffer floating-point key instability.
type SearchCacheEntry struct {
	QueryHash   string           `gorm:"primaryKey;size:64" json:"query_hash"`
	ResultLimit int              `gorm:"primaryKey" json:"result_limit"`
	UserID      string           `gorm:"primaryKey;size:64;default:''" json:"user_id"`
	Results     SearchResultList `gorm:"type:text" json:"results"`
	CacheEntryMeta
}

// TableName overrides the GORM table name.
func (SearchCacheEntry) TableName() string { return "vector_search_cache" }

// ResponseCacheEntry memoizes one generated answer together with everything
// needed to decide whether a later, semantically similar question may reuse
// it: the question embedding for similarity scoring and the data fingerprint
// for strict-mode grounding checks.
type ResponseCacheEntry struct {
	ID                uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionText      string `gorm:"type:text" json:"question_text"`
	QuestionEmbedding Vector `gorm:"type:text" json:"question_embedding"`
	Provider          string `gorm:"size:64;index" json:"provider"`
	DataFingerprint   string `gorm:"size:64;index" json:"data_fingerprint"`
	ResponseText      string `gorm:"type:text" json:"response_text"`
	PromptTokens      int64  `json:"prompt_tokens"`
	ResponseTokens    int64  `json:"response_tokens"`
	CacheEntryMeta
}

// TableName overrides the GORM table name.
func (ResponseCacheEntry) TableName() string { return "query_cache" }

// TokensTotal is the generation cost the entry saves on every accepted hit.
func (e ResponseCacheEntry) TokensTotal() int64 {
	return e.PromptTokens + e.ResponseTokens
}

// CacheEvent is one hit/miss/write observation, persisted so statistics can
// be aggregated over a rolling window across process restarts.
type CacheEvent struct {
	ID          uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Layer       CacheLayer   `gorm:"size:32;index:idx_cache_events_layer_time" json:"layer"`
	Outcome     CacheOutcome `gorm:"size:16" json:"outcome"`
	TokensSaved int64        `json:"tokens_saved"`
	CreatedAt   time.Time    `gorm:"index:idx_cache_events_layer_time" json:"created_at"`
}

// TableName overrides the GORM table name.
func (CacheEvent) TableName() string { return "cache_events" }
