package cache

import (
	"github.com/banko-ai/banko-backend/internal/models"
)

// NearestNeighborIndex picks the best reusable entry among response cache
// candidates. Implementations return the index of the winner, its similarity,
// and whether any candidate cleared the threshold.
type NearestNeighborIndex interface {
	Nearest(query models.Vector, threshold float64, candidates []models.ResponseCacheEntry) (int, float64, bool)
}

// LinearIndex scores every candidate with cosine similarity. Brute force is
// the right trade at the candidate counts a provider partition produces; an
// ANN structure would add state to invalidate for no measurable win.
type LinearIndex struct{}

// Nearest returns the candidate with the highest similarity at or above the
// threshold. Ties go to the most recently accessed entry, so the answer that
// keeps proving useful keeps winning.
func (LinearIndex) Nearest(query models.Vector, threshold float64, candidates []models.ResponseCacheEntry) (int, float64, bool) {
	best := -1
	bestScore := 0.0

	for i := range candidates {
		score := models.CosineSimilarity(query, candidates[i].QuestionEmbedding)
		if score < threshold {
			continue
		}
		switch {
		case best < 0 || score > bestScore:
			best, bestScore = i, score
		case score == bestScore && candidates[i].LastAccessed.After(candidates[best].LastAccessed):
			best = i
		}
	}

	if best < 0 {
		return -1, 0, false
	}
	return best, bestScore, true
}
