package domain

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

// Account represents one node of the chart of accounts.
// Balance is the running signed balance in the account's own currency:
// sum of debit amounts minus sum of credit amounts across posted entries.
// Sign interpretation (normal debit vs normal credit balance) is left to
// callers reading AccountType.
type Account struct {
	AccountID       string          `json:"accountID"`       // Primary Key (UUID)
	OrganizationID  string          `json:"organizationID"`  // FK -> organizations.organization_id (Not Null)
	Code            string          `json:"code"`            // User-facing code, unique per organization
	Name            string          `json:"name"`            // User-defined name
	AccountType     AccountType     `json:"accountType"`     // ASSET, LIABILITY, etc.
	CurrencyCode    string          `json:"currencyCode"`    // Functional currency of the account
	ParentAccountID string          `json:"parentAccountID"` // Nullable self-reference; parent must share AccountType
	Description     string          `json:"description"`     // Nullable user description
	IsActive        bool            `json:"isActive"`        // Accounts with ledger activity are deactivated, never deleted
	Balance         decimal.Decimal `json:"balance"`         // Persisted running balance
	AuditFields
}
