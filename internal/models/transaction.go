package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state stored in the transactions table.
type TransactionStatus string

const (
	Draft  TransactionStatus = "DRAFT"
	Posted TransactionStatus = "POSTED"
	Voided TransactionStatus = "VOIDED"
)

// TransactionType tags the business origin of a transaction.
type TransactionType string

const (
	TypeJournal    TransactionType = "JOURNAL"
	TypeReversal   TransactionType = "REVERSAL"
	TypeAdjustment TransactionType = "RECONCILIATION_ADJUSTMENT"
)

// Transaction represents one row of the transactions table.
type Transaction struct {
	TransactionID   string            `db:"transaction_id"`
	OrganizationID  string            `db:"organization_id"`
	TransactionDate time.Time         `db:"transaction_date"`
	TransactionType TransactionType   `db:"transaction_type"`
	Description     string            `db:"description"`
	Reference       string            `db:"reference"` // Nullable
	Status          TransactionStatus `db:"status"`
	CurrencyCode    string            `db:"currency_code"`
	Amount          decimal.Decimal   `db:"amount"`

	OriginalTransactionID  *string `db:"original_transaction_id"`  // Nullable, set on reversals
	ReversingTransactionID *string `db:"reversing_transaction_id"` // Nullable, set on voided originals

	AuditFields
}
