package dto

import (
	"time"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryRequest is one debit/credit line of a post-transaction request.
// ExchangeRate converts the entry amount to the organization's base currency;
// it is supplied by the caller and captured as-is, never looked up internally.
type CreateEntryRequest struct {
	AccountID    string           `json:"accountID" binding:"required"`
	Side         domain.EntrySide `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Amount       decimal.Decimal  `json:"amount" binding:"required"`
	CurrencyCode string           `json:"currencyCode" binding:"required,len=3"`
	ExchangeRate decimal.Decimal  `json:"exchangeRate" binding:"required"`
	Notes        string           `json:"notes"`
}

// CreateTransactionRequest defines the payload for posting a transaction.
// Status selects between a directly posted transaction and an editable draft.
type CreateTransactionRequest struct {
	Date        time.Time            `json:"date" binding:"required"`
	Description string               `json:"description" binding:"required"`
	Reference   string               `json:"reference"`
	Status      string               `json:"status" binding:"omitempty,oneof=DRAFT POSTED"` // Default: POSTED
	Entries     []CreateEntryRequest `json:"entries" binding:"required,min=2,dive"`
}

// UpdateDraftRequest replaces a draft's line items wholesale and optionally
// updates header fields.
type UpdateDraftRequest struct {
	Date        *time.Time           `json:"date"`
	Description *string              `json:"description"`
	Reference   *string              `json:"reference"`
	Entries     []CreateEntryRequest `json:"entries" binding:"required,min=2,dive"`
}

// ReverseTransactionRequest carries the operator's reason for the reversal.
type ReverseTransactionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// EntryResponse defines the data returned for a ledger entry.
type EntryResponse struct {
	EntryID        string          `json:"entryID"`
	TransactionID  string          `json:"transactionID"`
	AccountID      string          `json:"accountID"`
	Side           string          `json:"side"`
	Amount         decimal.Decimal `json:"amount"`
	CurrencyCode   string          `json:"currencyCode"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`
	BaseAmount     decimal.Decimal `json:"baseAmount"`
	Notes          string          `json:"notes,omitempty"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID          string          `json:"transactionID"`
	OrganizationID         string          `json:"organizationID"`
	Date                   time.Time       `json:"date"`
	TransactionType        string          `json:"transactionType"`
	Description            string          `json:"description"`
	Reference              string          `json:"reference,omitempty"`
	Status                 string          `json:"status"`
	CurrencyCode           string          `json:"currencyCode"`
	Amount                 decimal.Decimal `json:"amount"`
	OriginalTransactionID  *string         `json:"originalTransactionID,omitempty"`
	ReversingTransactionID *string         `json:"reversingTransactionID,omitempty"`
	Entries                []EntryResponse `json:"entries,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	CreatedBy              string          `json:"createdBy"`
}

// ToEntryResponse converts a domain.LedgerEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		EntryID:        e.EntryID,
		TransactionID:  e.TransactionID,
		AccountID:      e.AccountID,
		Side:           string(e.Side),
		Amount:         e.Amount,
		CurrencyCode:   e.CurrencyCode,
		ExchangeRate:   e.ExchangeRate,
		BaseAmount:     e.BaseAmount,
		Notes:          e.Notes,
		RunningBalance: e.RunningBalance,
	}
}

// ToEntryResponses converts a slice of domain.LedgerEntry to EntryResponse DTOs.
func ToEntryResponses(entries []domain.LedgerEntry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID:          t.TransactionID,
		OrganizationID:         t.OrganizationID,
		Date:                   t.TransactionDate,
		TransactionType:        string(t.TransactionType),
		Description:            t.Description,
		Reference:              t.Reference,
		Status:                 string(t.Status),
		CurrencyCode:           t.CurrencyCode,
		Amount:                 t.Amount,
		OriginalTransactionID:  t.OriginalTransactionID,
		ReversingTransactionID: t.ReversingTransactionID,
		CreatedAt:              t.CreatedAt,
		CreatedBy:              t.CreatedBy,
	}
	if len(t.Entries) > 0 {
		resp.Entries = ToEntryResponses(t.Entries)
	}
	return resp
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit            int     `form:"limit,default=20"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals,default=false"`
	IncludeEntries   bool    `form:"includeEntries,default=false"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ListEntriesParams defines query parameters for listing account entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of ledger entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}
