package dto

import (
	"time"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StartReconciliationRequest opens a session for one bank account and
// statement period. StatementBalance is externally supplied and never derived.
type StartReconciliationRequest struct {
	BankAccountID    string          `json:"bankAccountID" binding:"required"`
	StatementDate    time.Time       `json:"statementDate" binding:"required"`
	StatementBalance decimal.Decimal `json:"statementBalance" binding:"required"`
}

// ToggleClearRequest marks or unmarks one item as cleared in the session.
type ToggleClearRequest struct {
	ItemID    string                   `json:"itemID" binding:"required"`
	ItemType  domain.ClearableItemType `json:"itemType" binding:"required,oneof=LEDGER_ENTRY BANK_TRANSACTION"`
	IsCleared *bool                    `json:"isCleared" binding:"required"`
}

// GapResponse is the recomputed reconciliation gap.
type GapResponse struct {
	OpeningBalance     decimal.Decimal `json:"openingBalance"`
	ClearedDeposits    decimal.Decimal `json:"clearedDeposits"`
	ClearedWithdrawals decimal.Decimal `json:"clearedWithdrawals"`
	CalculatedBalance  decimal.Decimal `json:"calculatedBalance"`
	StatementBalance   decimal.Decimal `json:"statementBalance"`
	Difference         decimal.Decimal `json:"difference"`
	IsBalanced         bool            `json:"isBalanced"`
}

// ToGapResponse converts a domain.Gap to GapResponse DTO.
func ToGapResponse(g domain.Gap) GapResponse {
	return GapResponse{
		OpeningBalance:     g.OpeningBalance,
		ClearedDeposits:    g.ClearedDeposits,
		ClearedWithdrawals: g.ClearedWithdrawals,
		CalculatedBalance:  g.CalculatedBalance,
		StatementBalance:   g.StatementBalance,
		Difference:         g.Difference,
		IsBalanced:         g.IsBalanced,
	}
}

// ClearableItemResponse is one book-side or bank-side item of the session view.
type ClearableItemResponse struct {
	ItemID      string          `json:"itemID"`
	ItemType    string          `json:"itemType"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   string          `json:"direction"`
	Description string          `json:"description,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Payee       string          `json:"payee,omitempty"`
	IsCleared   bool            `json:"isCleared"`
	IsLocked    bool            `json:"isLocked"`
}

// ToClearableItemResponses converts clearable items to DTOs.
func ToClearableItemResponses(items []domain.ClearableItem) []ClearableItemResponse {
	res := make([]ClearableItemResponse, len(items))
	for i, item := range items {
		res[i] = ClearableItemResponse{
			ItemID:      item.ItemID,
			ItemType:    string(item.ItemType),
			Date:        item.Date,
			Amount:      item.Amount,
			Direction:   string(item.Direction),
			Description: item.Description,
			Reference:   item.Reference,
			Payee:       item.Payee,
			IsCleared:   item.IsCleared,
			IsLocked:    item.IsLocked,
		}
	}
	return res
}

// ReconciliationResponse is the full session view: header, live gap, and the
// clearable item projection.
type ReconciliationResponse struct {
	ReconciliationID string                  `json:"reconciliationID"`
	OrganizationID   string                  `json:"organizationID"`
	BankAccountID    string                  `json:"bankAccountID"`
	StatementDate    time.Time               `json:"statementDate"`
	Status           string                  `json:"status"`
	Gap              GapResponse             `json:"gap"`
	Items            []ClearableItemResponse `json:"items,omitempty"`
	FinalizedAt      *time.Time              `json:"finalizedAt,omitempty"`
	FinalizedBy      string                  `json:"finalizedBy,omitempty"`
}

// MatchSuggestionResponse is one proposed pairing with its confidence score.
type MatchSuggestionResponse struct {
	EntryID           string `json:"entryID"`
	BankTransactionID string `json:"bankTransactionID"`
	Confidence        int    `json:"confidence"`
	Reason            string `json:"reason"`
}

// ToMatchSuggestionResponses converts domain suggestions to DTOs.
func ToMatchSuggestionResponses(suggestions []domain.MatchSuggestion) []MatchSuggestionResponse {
	res := make([]MatchSuggestionResponse, len(suggestions))
	for i, s := range suggestions {
		res[i] = MatchSuggestionResponse{
			EntryID:           s.EntryID,
			BankTransactionID: s.BankTransactionID,
			Confidence:        s.Confidence,
			Reason:            s.Reason,
		}
	}
	return res
}

// ListSuggestionsResponse wraps the suggestion list.
type ListSuggestionsResponse struct {
	Suggestions []MatchSuggestionResponse `json:"suggestions"`
}

// AutoMatchRequest applies suggestions at or above MinConfidence.
type AutoMatchRequest struct {
	MinConfidence *int `json:"minConfidence" binding:"omitempty,min=0,max=100"` // Default: 80
}

// AutoMatchResponse reports the pairs cleared by an auto-match run.
type AutoMatchResponse struct {
	Applied []MatchSuggestionResponse `json:"applied"`
	Gap     GapResponse               `json:"gap"`
}

// PostAdjustmentRequest creates a small two-line transaction (bank GL vs the
// named expense/income account) for a statement-only item such as a bank fee
// or interest, and clears the resulting book-side entry in the same call.
type PostAdjustmentRequest struct {
	Date             time.Time                       `json:"date" binding:"required"`
	Amount           decimal.Decimal                 `json:"amount" binding:"required"`
	Direction        domain.BankTransactionDirection `json:"direction" binding:"required,oneof=DEPOSIT WITHDRAWAL"`
	Description      string                          `json:"description" binding:"required"`
	CounterAccountID string                          `json:"counterAccountID" binding:"required"` // Expense or income account
	// Optional bank-side feed row to clear together with the new book entry.
	BankTransactionID *string `json:"bankTransactionID"`
}

// AdjustmentResponse returns the created transaction and the refreshed gap.
type AdjustmentResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Gap         GapResponse         `json:"gap"`
}
