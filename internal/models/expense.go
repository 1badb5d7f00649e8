package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Expense is one financial-transaction record with its precomputed embedding.
// Column names mirror the original expenses table.
type Expense struct {
	ExpenseID     string    `gorm:"primaryKey;size:36" json:"expense_id"`
	UserID        string    `gorm:"size:64;index" json:"user_id"`
	Description   string    `gorm:"type:text" json:"description"`
	Amount        float64   `gorm:"column:expense_amount" json:"amount"`
	Merchant      string    `gorm:"size:128" json:"merchant"`
	Category      string    `gorm:"column:shopping_type;size:64" json:"category"`
	ExpenseDate   time.Time `gorm:"column:expense_date" json:"date"`
	PaymentMethod string    `gorm:"size:64" json:"payment_method"`
	Embedding     Vector    `gorm:"type:text" json:"-"`
}

// TableName overrides the GORM table name.
func (Expense) TableName() string { return "expenses" }

// SearchResult is one row of a ranked similarity query: a snapshot of the
// matched expense plus its similarity score (1 - distance). Result lists are
// ordered ascending by distance, so descending by similarity.
type SearchResult struct {
	ExpenseID       string  `json:"expense_id"`
	UserID          string  `json:"user_id"`
	Description     string  `json:"description"`
	Amount          float64 `json:"amount"`
	Merchant        string  `json:"merchant"`
	Category        string  `json:"category"`
	Date            string  `json:"date"`
	PaymentMethod   string  `json:"payment_method"`
	SimilarityScore float64 `json:"similarity_score"`
}

// NewSearchResult snapshots an expense at a given similarity score.
func NewSearchResult(e Expense, similarity float64) SearchResult {
	return SearchResult{
		ExpenseID:       e.ExpenseID,
		UserID:          e.UserID,
		Description:     e.Description,
		Amount:          e.Amount,
		Merchant:        e.Merchant,
		Category:        e.Category,
		Date:            e.ExpenseDate.UTC().Format(time.RFC3339),
		PaymentMethod:   e.PaymentMethod,
		SimilarityScore: similarity,
	}
}

// SearchResultList stores an ordered result set as a JSON column.
type SearchResultList []SearchResult

// Value implements driver.Valuer.
func (l SearchResultList) Value() (driver.Value, error) {
	data, err := json.Marshal([]SearchResult(l))
	if err != nil {
		return nil, fmt.Errorf("failed to encode search results: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *SearchResultList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch s := src.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("unsupported search result column type %T", src)
	}

	var out []SearchResult
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode search results: %w", err)
	}
	*l = out
	return nil
}
