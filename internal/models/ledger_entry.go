package models

import (
	"github.com/shopspring/decimal"
)

// EntrySide indicates whether an entry is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// LedgerEntry represents one row of the ledger_entries table.
type LedgerEntry struct {
	EntryID        string          `db:"entry_id"`
	TransactionID  string          `db:"transaction_id"`
	AccountID      string          `db:"account_id"`
	Side           EntrySide       `db:"side"`
	Amount         decimal.Decimal `db:"amount"`
	CurrencyCode   string          `db:"currency_code"`
	ExchangeRate   decimal.Decimal `db:"exchange_rate"`
	BaseAmount     decimal.Decimal `db:"base_amount"`
	Notes          string          `db:"notes"`           // Nullable
	RunningBalance decimal.Decimal `db:"running_balance"` // Balance after this entry
	AuditFields
}
