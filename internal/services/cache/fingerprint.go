package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/banko-ai/banko-backend/internal/models"
)

// TextKey derives the embedding cache key from the exact input text and the
// embedding model id. Including the model id keeps vectors from different
// models out of each other's keyspace.
func TextKey(modelID, text string) string {
	sum := sha256.Sum256([]byte(modelID + ":" + text))
	return hex.EncodeToString(sum[:])
}

// fingerprintRow is the canonical projection of a search result used for
// fingerprinting. Similarity score is deliberately absent: it depends on the
// question asked, not on the underlying records, and including it would make
// two questions over identical data fingerprint differently.
type fingerprintRow struct {
	ExpenseID     string  `json:"expense_id"`
	UserID        string  `json:"user_id"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Merchant      string  `json:"merchant"`
	Category      string  `json:"category"`
	Date          string  `json:"date"`
	PaymentMethod string  `json:"payment_method"`
}

// Fingerprint condenses a result set into a digest that changes exactly when
// the underlying records change. Rows are sorted by id first so ranking
// differences between equally grounded questions do not perturb the digest.
func Fingerprint(results []models.SearchResult) string {
	rows := make([]fingerprintRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, fingerprintRow{
			ExpenseID:     r.ExpenseID,
			UserID:        r.UserID,
			Description:   r.Description,
			Amount:        r.Amount,
			Merchant:      r.Merchant,
			Category:      r.Category,
			Date:          r.Date,
			PaymentMethod: r.PaymentMethod,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ExpenseID < rows[j].ExpenseID })

	encoded, err := json.Marshal(rows)
	if err != nil {
		// Marshaling a slice of plain structs cannot fail; keep the
		// signature ergonomic for callers.
		return ""
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
