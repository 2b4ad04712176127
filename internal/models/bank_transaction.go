package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransactionDirection distinguishes money in from money out.
type BankTransactionDirection string

const (
	DirectionDeposit    BankTransactionDirection = "DEPOSIT"
	DirectionWithdrawal BankTransactionDirection = "WITHDRAWAL"
)

// BankTransaction represents one row of the bank_transactions table.
// The dedupe key is (bank_account_id, reference, transaction_date, amount,
// direction), enforced by a unique index.
type BankTransaction struct {
	BankTransactionID string                   `db:"bank_transaction_id"`
	BankAccountID     string                   `db:"bank_account_id"`
	TransactionDate   time.Time                `db:"transaction_date"`
	Amount            decimal.Decimal          `db:"amount"`
	Direction         BankTransactionDirection `db:"direction"`
	Description       string                   `db:"description"` // Nullable
	Reference         string                   `db:"reference"`   // Nullable
	Payee             string                   `db:"payee"`       // Nullable
	ReconciliationID  *string                  `db:"reconciliation_id"` // Nullable, stamped on finalize
	AuditFields
}
