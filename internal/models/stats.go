package models

// LayerStats aggregates observations for one cache layer over a window.
type LayerStats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Writes      int64   `json:"writes"`
	HitRate     float64 `json:"hit_rate"`
	TokensSaved int64   `json:"tokens_saved"`
}

// Requests is the number of lookups (writes are not lookups).
func (s LayerStats) Requests() int64 { return s.Hits + s.Misses }

// CacheStats is the operator-facing aggregate across all layers.
type CacheStats struct {
	WindowHours             int                       `json:"window_hours"`
	Layers                  map[CacheLayer]LayerStats `json:"cache_details"`
	TotalRequests           int64                     `json:"total_requests"`
	TotalHits               int64                     `json:"total_hits"`
	OverallHitRate          float64                   `json:"overall_hit_rate"`
	TotalTokensSaved        int64                     `json:"total_tokens_saved"`
	EstimatedCostSavingsUSD float64                   `json:"estimated_cost_savings_usd"`
}

// CleanupResult reports how many expired rows each layer's sweep removed.
type CleanupResult struct {
	Embedding int64 `json:"embedding"`
	Search    int64 `json:"vector_search"`
	Response  int64 `json:"response"`
}

// Total is the number of rows removed across all layers.
func (r CleanupResult) Total() int64 { return r.Embedding + r.Search + r.Response }
