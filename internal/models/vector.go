package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// Vector is a fixed-dimensionality embedding stored as a JSON array literal.
// The same text and model always produce a bit-identical vector, so the JSON
// encoding is stable enough to round-trip through any supported dialect.
type Vector []float32

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, fmt.Errorf("failed to encode vector: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src any) error {
	if src == nil {
		*v = nil
		return nil
	}

	var data []byte
	switch s := src.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("unsupported vector column type %T", src)
	}

	var out []float32
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode vector: %w", err)
	}
	*v = out
	return nil
}

// CosineSimilarity returns the cosine similarity between two vectors,
// normalized to [0, 1] where 1 means identical direction. Mismatched
// dimensions or zero vectors score 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp into [0, 1]: opposing vectors are "not similar", not negatively so.
	return math.Max(0, math.Min(1, cos))
}
