package models

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Account represents one row of the accounts table.
// Note: ParentAccountID uses string for the nullable self-reference.
type Account struct {
	AccountID       string          `db:"account_id"`
	OrganizationID  string          `db:"organization_id"`
	Code            string          `db:"code"` // User-facing code, unique per organization
	Name            string          `db:"name"`
	AccountType     AccountType     `db:"account_type"`
	CurrencyCode    string          `db:"currency_code"`
	ParentAccountID string          `db:"parent_account_id"` // Nullable
	Description     string          `db:"description"`
	IsActive        bool            `db:"is_active"`
	AuditFields                     // Embed common audit fields
	Balance         decimal.Decimal `db:"balance"` // Persisted running balance
}
