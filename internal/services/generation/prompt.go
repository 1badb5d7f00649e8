package generation

import (
	"fmt"
	"strings"

	"github.com/banko-ai/banko-backend/internal/models"
)

const systemPrompt = `You are a personal finance assistant. Answer the user's question using only the transaction records provided. Be concise and specific: cite amounts, merchants and dates from the records. If the records do not contain enough information to answer, say so instead of guessing.`

// buildPrompt renders the question and its grounding records into the user
// message sent to every provider. The record format is stable on purpose so
// identical data produces identical prompts across providers.
func buildPrompt(question string, records []models.SearchResult) string {
	var b strings.Builder

	b.WriteString("Transaction records:\n")
	if len(records) == 0 {
		b.WriteString("(no matching transactions found)\n")
	}
	for _, r := range records {
		fmt.Fprintf(&b, "- %s: $%.2f at %s (%s, %s)", r.Date, r.Amount, r.Merchant, r.Category, r.PaymentMethod)
		if r.Description != "" {
			b.WriteString(" - ")
			b.WriteString(r.Description)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
