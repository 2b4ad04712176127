package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the two-state lifecycle of a reconciliation
// session. FINALIZED is terminal; abandoned sessions are simply discarded
// by the caller.
type ReconciliationStatus string

const (
	ReconciliationInProgress ReconciliationStatus = "IN_PROGRESS"
	ReconciliationFinalized  ReconciliationStatus = "FINALIZED"
)

// ClearableItemType distinguishes the two sides of a reconciliation.
type ClearableItemType string

const (
	// ItemTypeEntry is a book-side item: a posted ledger entry on the
	// bank's GL account.
	ItemTypeEntry ClearableItemType = "LEDGER_ENTRY"
	// ItemTypeBankTransaction is a bank-side item: an imported feed row.
	ItemTypeBankTransaction ClearableItemType = "BANK_TRANSACTION"
)

// Reconciliation holds one session for a (bank account, statement date)
// pair. Cleared ids are stored as two id sets rather than join rows since
// clearing is boolean per item per session.
type Reconciliation struct {
	ReconciliationID string               `json:"reconciliationID"` // Primary Key (UUID)
	OrganizationID   string               `json:"organizationID"`   // FK -> organizations.organization_id (Not Null)
	BankAccountID    string               `json:"bankAccountID"`    // FK -> bank_accounts.bank_account_id (Not Null)
	StatementDate    time.Time            `json:"statementDate"`
	StatementBalance decimal.Decimal      `json:"statementBalance"` // Externally supplied, never derived
	OpeningBalance   decimal.Decimal      `json:"openingBalance"`   // Carried from the bank account at session start
	Status           ReconciliationStatus `json:"status"`

	ClearedEntryIDs           []string `json:"clearedEntryIDs"`           // Book-side cleared set
	ClearedBankTransactionIDs []string `json:"clearedBankTransactionIDs"` // Bank-side cleared set
	Version                   int64    `json:"-"`                         // Optimistic lock; bumped on every cleared-set write

	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
	FinalizedBy string     `json:"finalizedBy,omitempty"`

	AuditFields
}

// IsEntryCleared reports whether the book-side item id is in the cleared set.
func (r *Reconciliation) IsEntryCleared(entryID string) bool {
	for _, id := range r.ClearedEntryIDs {
		if id == entryID {
			return true
		}
	}
	return false
}

// IsBankTransactionCleared reports whether the bank-side item id is in the
// cleared set.
func (r *Reconciliation) IsBankTransactionCleared(bankTxnID string) bool {
	for _, id := range r.ClearedBankTransactionIDs {
		if id == bankTxnID {
			return true
		}
	}
	return false
}

// ClearableItem is a read projection over either a book-side ledger entry or
// a bank-side feed row, derived per session. It is never stored.
type ClearableItem struct {
	ItemID      string                   `json:"itemID"`
	ItemType    ClearableItemType        `json:"itemType"`
	Date        time.Time                `json:"date"`
	Amount      decimal.Decimal          `json:"amount"` // Positive value
	Direction   BankTransactionDirection `json:"direction"`
	Description string                   `json:"description"`
	Reference   string                   `json:"reference"`
	Payee       string                   `json:"payee"`
	IsCleared   bool                     `json:"isCleared"`
	IsLocked    bool                     `json:"isLocked"` // Cleared by a previously finalized session
}

// Gap is the recomputed difference between the book-derived balance and the
// externally supplied statement balance. It is a pure function of its
// inputs; no cached gap is authoritative.
type Gap struct {
	OpeningBalance     decimal.Decimal `json:"openingBalance"`
	ClearedDeposits    decimal.Decimal `json:"clearedDeposits"`
	ClearedWithdrawals decimal.Decimal `json:"clearedWithdrawals"`
	CalculatedBalance  decimal.Decimal `json:"calculatedBalance"`
	StatementBalance   decimal.Decimal `json:"statementBalance"`
	Difference         decimal.Decimal `json:"difference"` // CalculatedBalance - StatementBalance
	IsBalanced         bool            `json:"isBalanced"` // |Difference| < 0.01
}
