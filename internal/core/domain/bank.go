package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount links a real-world bank account to its general ledger account.
// CurrentBalance is derived from the GL account's ledger activity plus the
// opening balance; it is never edited directly.
type BankAccount struct {
	BankAccountID  string          `json:"bankAccountID"`  // Primary Key (UUID)
	OrganizationID string          `json:"organizationID"` // FK -> organizations.organization_id (Not Null)
	Name           string          `json:"name"`
	GLAccountID    string          `json:"glAccountID"` // FK -> accounts.account_id, the book-side asset account
	CurrencyCode   string          `json:"currencyCode"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"` // OpeningBalance + GL account balance

	LastReconciledDate    *time.Time      `json:"lastReconciledDate,omitempty"`
	LastReconciledBalance decimal.Decimal `json:"lastReconciledBalance"`

	AuditFields
}

// BankTransactionDirection distinguishes money in from money out.
type BankTransactionDirection string

const (
	DirectionDeposit    BankTransactionDirection = "DEPOSIT"
	DirectionWithdrawal BankTransactionDirection = "WITHDRAWAL"
)

// BankTransaction is one statement line delivered by the external feed
// importer, already deduplicated and normalized. ReconciliationID is set
// when a finalized session locks the row; locked rows can never be cleared
// again in a later session.
type BankTransaction struct {
	BankTransactionID string                   `json:"bankTransactionID"` // Primary Key (UUID)
	BankAccountID     string                   `json:"bankAccountID"`     // FK -> bank_accounts.bank_account_id (Not Null)
	TransactionDate   time.Time                `json:"transactionDate"`
	Amount            decimal.Decimal          `json:"amount"` // Positive value; Direction carries the sign
	Direction         BankTransactionDirection `json:"direction"`
	Description       string                   `json:"description"`
	Reference         string                   `json:"reference"`
	Payee             string                   `json:"payee"`
	ReconciliationID  *string                  `json:"reconciliationID,omitempty"` // Set by finalize, terminal

	AuditFields
}

// SignedAmount returns the statement amount with deposits positive and
// withdrawals negative.
func (b *BankTransaction) SignedAmount() decimal.Decimal {
	if b.Direction == DirectionWithdrawal {
		return b.Amount.Neg()
	}
	return b.Amount
}
