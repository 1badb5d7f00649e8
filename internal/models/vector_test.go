package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity(Vector{1, 0}, Vector{1, 0}), 1e-6)
	assert.InDelta(t, 1.0, CosineSimilarity(Vector{1, 0}, Vector{5, 0}), 1e-6, "magnitude must not matter")
	assert.InDelta(t, 0.0, CosineSimilarity(Vector{1, 0}, Vector{0, 1}), 1e-6)
	assert.InDelta(t, 0.91, CosineSimilarity(Vector{1, 0}, Vector{0.91, 0.414608}), 0.001)
}

func TestCosineSimilarityClampsToUnitInterval(t *testing.T) {
	// Opposed vectors have raw cosine -1; scores are clamped, never shifted.
	assert.Zero(t, CosineSimilarity(Vector{1, 0}, Vector{-1, 0}))
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	assert.Zero(t, CosineSimilarity(Vector{}, Vector{1}))
	assert.Zero(t, CosineSimilarity(Vector{1, 0}, Vector{1}), "mismatched dimensions score zero")
	assert.Zero(t, CosineSimilarity(Vector{0, 0}, Vector{1, 0}), "zero vector scores zero")
}
