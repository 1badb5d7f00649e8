package generation

import (
	"testing"

	"github.com/banko-ai/banko-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptIncludesRecordsAndQuestion(t *testing.T) {
	records := []models.SearchResult{
		{
			ExpenseID: "exp-001", Description: "flat white", Amount: 4.50,
			Merchant: "Blue Bottle", Category: "Food",
			Date: "2026-08-01T00:00:00Z", PaymentMethod: "credit card",
		},
	}

	prompt := buildPrompt("how much coffee?", records)

	assert.Contains(t, prompt, "$4.50 at Blue Bottle")
	assert.Contains(t, prompt, "flat white")
	assert.Contains(t, prompt, "Question: how much coffee?")
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	records := []models.SearchResult{
		{ExpenseID: "a", Amount: 1, Merchant: "m", Category: "c", Date: "d", PaymentMethod: "p"},
	}
	assert.Equal(t, buildPrompt("q", records), buildPrompt("q", records))
}

func TestBuildPromptWithNoRecords(t *testing.T) {
	prompt := buildPrompt("anything?", nil)
	assert.Contains(t, prompt, "no matching transactions")
}

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, estimateTokens(""))
	assert.EqualValues(t, 1, estimateTokens("abcd"))
	assert.EqualValues(t, 3, estimateTokens("twelve chars"))
}
