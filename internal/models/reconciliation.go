package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the session lifecycle state.
type ReconciliationStatus string

const (
	ReconciliationInProgress ReconciliationStatus = "IN_PROGRESS"
	ReconciliationFinalized  ReconciliationStatus = "FINALIZED"
)

// Reconciliation represents one row of the reconciliations table. The
// cleared sets are stored as text arrays; version backs optimistic locking
// of cleared-set updates.
type Reconciliation struct {
	ReconciliationID string               `db:"reconciliation_id"`
	OrganizationID   string               `db:"organization_id"`
	BankAccountID    string               `db:"bank_account_id"`
	StatementDate    time.Time            `db:"statement_date"`
	StatementBalance decimal.Decimal      `db:"statement_balance"`
	OpeningBalance   decimal.Decimal      `db:"opening_balance"`
	Status           ReconciliationStatus `db:"status"`

	ClearedEntryIDs           []string `db:"cleared_entry_ids"`
	ClearedBankTransactionIDs []string `db:"cleared_bank_transaction_ids"`
	Version                   int64    `db:"version"`

	FinalizedAt *time.Time `db:"finalized_at"` // Nullable
	FinalizedBy string     `db:"finalized_by"` // Nullable

	AuditFields
}
