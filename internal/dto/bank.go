package dto

import (
	"time"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBankAccountRequest defines the data needed to register a bank account
// against its general ledger account.
type CreateBankAccountRequest struct {
	Name           string          `json:"name" binding:"required"`
	GLAccountID    string          `json:"glAccountID" binding:"required"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// BankAccountResponse defines the data returned for a bank account.
type BankAccountResponse struct {
	BankAccountID         string          `json:"bankAccountID"`
	OrganizationID        string          `json:"organizationID"`
	Name                  string          `json:"name"`
	GLAccountID           string          `json:"glAccountID"`
	CurrencyCode          string          `json:"currencyCode"`
	OpeningBalance        decimal.Decimal `json:"openingBalance"`
	CurrentBalance        decimal.Decimal `json:"currentBalance"`
	LastReconciledDate    *time.Time      `json:"lastReconciledDate,omitempty"`
	LastReconciledBalance decimal.Decimal `json:"lastReconciledBalance"`
}

// ToBankAccountResponse converts a domain.BankAccount to BankAccountResponse DTO.
func ToBankAccountResponse(b *domain.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		BankAccountID:         b.BankAccountID,
		OrganizationID:        b.OrganizationID,
		Name:                  b.Name,
		GLAccountID:           b.GLAccountID,
		CurrencyCode:          b.CurrencyCode,
		OpeningBalance:        b.OpeningBalance,
		CurrentBalance:        b.CurrentBalance,
		LastReconciledDate:    b.LastReconciledDate,
		LastReconciledBalance: b.LastReconciledBalance,
	}
}

// BankFeedRow is one normalized statement line from the external feed
// importer. The importer is responsible for parsing statement formats and
// deduplicating before submission.
type BankFeedRow struct {
	Date        time.Time                       `json:"date" binding:"required"`
	Amount      decimal.Decimal                 `json:"amount" binding:"required"`
	Direction   domain.BankTransactionDirection `json:"direction" binding:"required,oneof=DEPOSIT WITHDRAWAL"`
	Description string                          `json:"description"`
	Reference   string                          `json:"reference"`
	Payee       string                          `json:"payee"`
}

// ImportBankTransactionsRequest carries a batch of feed rows.
type ImportBankTransactionsRequest struct {
	Transactions []BankFeedRow `json:"transactions" binding:"required,min=1,dive"`
}

// ImportBankTransactionsResponse reports the outcome of a feed import.
type ImportBankTransactionsResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"` // Duplicates ignored by the dedupe key
}

// BankTransactionResponse defines the data returned for an imported feed row.
type BankTransactionResponse struct {
	BankTransactionID string          `json:"bankTransactionID"`
	BankAccountID     string          `json:"bankAccountID"`
	Date              time.Time       `json:"date"`
	Amount            decimal.Decimal `json:"amount"`
	Direction         string          `json:"direction"`
	Description       string          `json:"description,omitempty"`
	Reference         string          `json:"reference,omitempty"`
	Payee             string          `json:"payee,omitempty"`
	ReconciliationID  *string         `json:"reconciliationID,omitempty"`
}

// ToBankTransactionResponse converts a domain.BankTransaction to its DTO.
func ToBankTransactionResponse(b *domain.BankTransaction) BankTransactionResponse {
	return BankTransactionResponse{
		BankTransactionID: b.BankTransactionID,
		BankAccountID:     b.BankAccountID,
		Date:              b.TransactionDate,
		Amount:            b.Amount,
		Direction:         string(b.Direction),
		Description:       b.Description,
		Reference:         b.Reference,
		Payee:             b.Payee,
		ReconciliationID:  b.ReconciliationID,
	}
}
