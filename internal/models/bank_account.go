package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount represents one row of the bank_accounts table.
type BankAccount struct {
	BankAccountID  string          `db:"bank_account_id"`
	OrganizationID string          `db:"organization_id"`
	Name           string          `db:"name"`
	GLAccountID    string          `db:"gl_account_id"`
	CurrencyCode   string          `db:"currency_code"`
	OpeningBalance decimal.Decimal `db:"opening_balance"`

	LastReconciledDate    *time.Time      `db:"last_reconciled_date"` // Nullable
	LastReconciledBalance decimal.Decimal `db:"last_reconciled_balance"`

	AuditFields
}
