package models

// Confidence labels attached to answers based on the similarity score of the
// accepted cache match (or 1.0 for freshly generated answers).
const (
	ConfidenceHigh   = "high"   // >= 0.90
	ConfidenceMedium = "medium" // >= 0.70
	ConfidenceLow    = "low"
)

// ConfidenceForScore maps a normalized similarity score to a label.
func ConfidenceForScore(score float64) string {
	switch {
	case score >= 0.90:
		return ConfidenceHigh
	case score >= 0.70:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// AskRequest is one inbound natural-language question about expenses.
type AskRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id,omitzero"`   // optional per-user filter for grounding search
	Provider string `json:"provider,omitzero"`  // generation backend, defaults to the configured provider
	Limit    int    `json:"limit,omitzero"`     // grounding record count, defaults to 10
}

// AskResponse is the answer plus enough metadata to see how the cache layers
// behaved for this question.
type AskResponse struct {
	Answer         string         `json:"answer"`
	Provider       string         `json:"provider"`
	Cached         bool           `json:"cached"`
	Similarity     float64        `json:"similarity,omitzero"` // score of the accepted cache match
	Confidence     string         `json:"confidence"`
	Sources        []SearchResult `json:"sources,omitzero"`
	PromptTokens   int64          `json:"prompt_tokens"`
	ResponseTokens int64          `json:"response_tokens"`
	TokensSaved    int64          `json:"tokens_saved,omitzero"`
}
