package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus indicates the lifecycle state of a transaction.
type TransactionStatus string

const (
	// Draft transactions may be edited wholesale or deleted.
	Draft TransactionStatus = "DRAFT"
	// Posted transactions are immutable; correction is only via reversal.
	Posted TransactionStatus = "POSTED"
	// Voided is set on the original when a reversal is posted against it.
	// There is no direct void operation.
	Voided TransactionStatus = "VOIDED"
)

// TransactionType tags the business origin of a transaction.
type TransactionType string

const (
	TypeJournal    TransactionType = "JOURNAL"
	TypeReversal   TransactionType = "REVERSAL"
	TypeAdjustment TransactionType = "RECONCILIATION_ADJUSTMENT"
)

// Transaction represents a single, balanced financial event composed of
// multiple ledger entries.
type Transaction struct {
	TransactionID   string            `json:"transactionID"`  // Primary Key (UUID)
	OrganizationID  string            `json:"organizationID"` // FK -> organizations.organization_id (Not Null)
	TransactionDate time.Time         `json:"transactionDate"`
	TransactionType TransactionType   `json:"transactionType"`
	Description     string            `json:"description"`
	Reference       string            `json:"reference"` // Nullable external reference
	Status          TransactionStatus `json:"status"`
	CurrencyCode    string            `json:"currencyCode"` // Primary currency of the transaction
	Amount          decimal.Decimal   `json:"amount"`       // Debit-side total in base currency, the economic value of the event

	// Reversal lineage. OriginalTransactionID is set on the reversal,
	// ReversingTransactionID on the voided original.
	OriginalTransactionID  *string `json:"originalTransactionID,omitempty"`
	ReversingTransactionID *string `json:"reversingTransactionID,omitempty"`

	Entries []LedgerEntry `json:"entries,omitempty"` // Often loaded separately
	AuditFields
}

// IsReversal reports whether the transaction was created to offset another.
func (t *Transaction) IsReversal() bool {
	return t.OriginalTransactionID != nil
}
