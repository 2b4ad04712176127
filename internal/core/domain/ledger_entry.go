package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntrySide indicates whether a ledger entry is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// LedgerEntry represents a single line item within a Transaction, affecting
// one account. Amount is always positive; the side carries the direction.
// BaseAmount is Amount converted to the organization's base currency using
// the exchange rate captured at post time. Rates are never re-derived.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`       // Primary Key (UUID)
	TransactionID string          `json:"transactionID"` // FK -> Transaction.transactionID (Not Null)
	AccountID     string          `json:"accountID"`     // FK -> Account.accountID (Not Null)
	Side          EntrySide       `json:"side"`          // DEBIT or CREDIT (Not Null)
	Amount        decimal.Decimal `json:"amount"`        // Positive value in entry currency
	CurrencyCode  string          `json:"currencyCode"`  // Must match the account currency
	ExchangeRate  decimal.Decimal `json:"exchangeRate"`  // Caller-supplied rate to base currency
	BaseAmount    decimal.Decimal `json:"baseAmount"`    // Amount * ExchangeRate, fixed at post time
	Notes         string          `json:"notes"`         // Nullable

	// RunningBalance is the account balance immediately after this entry,
	// set by the repository at persist time.
	RunningBalance decimal.Decimal `json:"runningBalance"`

	// Denormalized transaction context, populated on reads that join the header.
	TransactionDate        time.Time `json:"transactionDate,omitempty"`
	TransactionDescription string    `json:"transactionDescription,omitempty"`

	AuditFields
}

// SignedAmount returns the entry amount with the ledger sign convention
// applied: debits positive, credits negative.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Side == Credit {
		return e.Amount.Neg()
	}
	return e.Amount
}
