package vectorsearch

import (
	"context"
	"testing"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *database.DB) {
	t.Helper()

	db, err := database.New(models.DatabaseConfig{Type: models.SQLite, FilePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewEngine(db), db
}

func seedExpenses(t *testing.T, db *database.DB) {
	t.Helper()

	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	expenses := []models.Expense{
		{
			ExpenseID: "exp-coffee", UserID: "user-1", Description: "flat white",
			Amount: 4.50, Merchant: "Blue Bottle", Category: "Food",
			ExpenseDate: date, PaymentMethod: "credit card",
			Embedding: models.Vector{1, 0},
		},
		{
			ExpenseID: "exp-groceries", UserID: "user-1", Description: "weekly groceries",
			Amount: 87.12, Merchant: "Trader Joe's", Category: "Groceries",
			ExpenseDate: date, PaymentMethod: "debit card",
			Embedding: models.Vector{0.91, 0.414608},
		},
		{
			ExpenseID: "exp-rent", UserID: "user-2", Description: "august rent",
			Amount: 2100, Merchant: "Landlord LLC", Category: "Housing",
			ExpenseDate: date, PaymentMethod: "bank transfer",
			Embedding: models.Vector{0, 1},
		},
	}
	for i := range expenses {
		require.NoError(t, db.Create(&expenses[i]).Error)
	}
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	engine, db := newTestEngine(t)
	seedExpenses(t, db)

	results, err := engine.Search(context.Background(), models.Vector{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exp-coffee", results[0].ExpenseID)
	assert.Equal(t, "exp-groceries", results[1].ExpenseID)
	assert.Equal(t, "exp-rent", results[2].ExpenseID)

	assert.InDelta(t, 1.0, results[0].SimilarityScore, 0.001)
	assert.InDelta(t, 0.91, results[1].SimilarityScore, 0.001)
	assert.InDelta(t, 0.0, results[2].SimilarityScore, 0.001)
}

func TestSearchHonorsLimit(t *testing.T) {
	engine, db := newTestEngine(t)
	seedExpenses(t, db)

	results, err := engine.Search(context.Background(), models.Vector{1, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exp-coffee", results[0].ExpenseID)
}

func TestSearchFiltersByUser(t *testing.T) {
	engine, db := newTestEngine(t)
	seedExpenses(t, db)

	results, err := engine.Search(context.Background(), models.Vector{1, 0}, 10, "user-2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "exp-rent", results[0].ExpenseID)
}

func TestSearchFewerRowsThanLimitIsNotAnError(t *testing.T) {
	engine, db := newTestEngine(t)
	seedExpenses(t, db)

	results, err := engine.Search(context.Background(), models.Vector{1, 0}, 100, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchValidatesInput(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Search(context.Background(), models.Vector{1, 0}, 0, "")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrorTypeValidation))

	_, err = engine.Search(context.Background(), models.Vector{}, 5, "")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrorTypeValidation))
}
