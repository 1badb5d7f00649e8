// Package vectorsearch runs ranked similarity queries against the expenses
// table. When the database understands vector columns the ranking happens
// in SQL (ORDER BY distance LIMIT k); other dialects scan embeddings in
// process, which is acceptable at demo scale.
package vectorsearch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/database"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Searcher answers "given this vector, what are the top-K similar records".
type Searcher interface {
	Search(ctx context.Context, embedding models.Vector, limit int, userID string) ([]models.SearchResult, error)
}

// Engine is the database-backed Searcher.
type Engine struct {
	db *database.DB
}

// NewEngine creates a search engine over the given database.
func NewEngine(db *database.DB) *Engine {
	return &Engine{db: db}
}

// Search returns up to limit expenses ordered ascending by distance to the
// query embedding. A non-empty userID restricts results to that user. Fewer
// than limit rows is not an error; exactly what the store returned is what
// the caller gets.
func (e *Engine) Search(ctx context.Context, embedding models.Vector, limit int, userID string) ([]models.SearchResult, error) {
	if limit <= 0 {
		return nil, models.NewValidationError(fmt.Sprintf("search limit %d must be positive", limit), nil)
	}
	if len(embedding) == 0 {
		return nil, models.NewValidationError("search embedding is empty", nil)
	}

	if e.db.SupportsVectorSearch() {
		return e.searchSQL(ctx, embedding, limit, userID)
	}
	return e.searchScan(ctx, embedding, limit, userID)
}

type searchRow struct {
	ExpenseID     string
	UserID        string
	Description   string
	ExpenseAmount float64
	Merchant      string
	ShoppingType  string
	ExpenseDate   time.Time
	PaymentMethod string
	Distance      float64
}

// searchSQL ranks inside the database using the <-> distance operator.
func (e *Engine) searchSQL(ctx context.Context, embedding models.Vector, limit int, userID string) ([]models.SearchResult, error) {
	sql := fmt.Sprintf(`
		SELECT
			expense_id,
			user_id,
			description,
			expense_amount,
			merchant,
			shopping_type,
			expense_date,
			payment_method,
			embedding <-> CAST(? AS VECTOR(%d)) AS distance
		FROM expenses`, len(embedding))

	args := []any{vectorLiteral(embedding)}
	if userID != "" {
		sql += " WHERE user_id = ?"
		args = append(args, userID)
	}
	sql += " ORDER BY distance LIMIT ?"
	args = append(args, limit)

	var rows []searchRow
	if err := e.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, models.NewStoreError("vector search", err)
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, models.SearchResult{
			ExpenseID:       row.ExpenseID,
			UserID:          row.UserID,
			Description:     row.Description,
			Amount:          row.ExpenseAmount,
			Merchant:        row.Merchant,
			Category:        row.ShoppingType,
			Date:            row.ExpenseDate.UTC().Format(time.RFC3339),
			PaymentMethod:   row.PaymentMethod,
			SimilarityScore: clamp01(1.0 - row.Distance),
		})
	}

	fiberlog.Debugf("VectorSearch: SQL ranking returned %d/%d results", len(results), limit)
	return results, nil
}

// searchScan ranks in process for dialects without vector columns.
func (e *Engine) searchScan(ctx context.Context, embedding models.Vector, limit int, userID string) ([]models.SearchResult, error) {
	query := e.db.WithContext(ctx).Model(&models.Expense{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var expenses []models.Expense
	if err := query.Find(&expenses).Error; err != nil {
		return nil, models.NewStoreError("vector search", err)
	}

	results := make([]models.SearchResult, 0, len(expenses))
	for _, expense := range expenses {
		similarity := models.CosineSimilarity(embedding, expense.Embedding)
		results = append(results, models.NewSearchResult(expense, similarity))
	}

	// Ascending by distance == descending by similarity.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if len(results) > limit {
		results = results[:limit]
	}

	fiberlog.Debugf("VectorSearch: in-process ranking returned %d/%d results", len(results), limit)
	return results, nil
}

// vectorLiteral formats an embedding as the array literal the database's
// vector type expects, e.g. [0.1,0.2,...].
func vectorLiteral(v models.Vector) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
