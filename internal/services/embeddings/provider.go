// Package embeddings converts question text into fixed-dimensionality
// vectors via an external provider. Providers are deterministic: the same
// text and model always produce a bit-identical vector, which is what lets
// the cache layers key on text hashes instead of raw vector bytes.
package embeddings

import (
	"context"

	"github.com/banko-ai/banko-backend/internal/models"
)

// Provider converts text into an embedding vector. Implementations must
// honor ctx deadlines; a timed-out call fails and its result is never cached.
type Provider interface {
	// Embed converts text into a vector using the given model.
	Embed(ctx context.Context, text, modelID string) (models.Vector, error)
	// ModelID returns the provider's default embedding model identifier.
	ModelID() string
}
