package repositories

import (
	"context"
	"time"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionReader defines read operations for transaction headers.
type TransactionReader interface {
	// FindTransactionByID retrieves a specific transaction by its unique identifier.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByOrganization retrieves a paginated list of transactions using
	// token-based pagination. It returns the transactions, a token for the next page,
	// and an error.
	ListTransactionsByOrganization(ctx context.Context, organizationID string, limit int, nextToken *string, includeReversals bool) ([]domain.Transaction, *string, error)
}

// TransactionWriter defines write operations for transaction data.
type TransactionWriter interface {
	// SaveTransaction persists a transaction and its entries, applying account
	// balance deltas atomically. For DRAFT transactions balanceChanges must be
	// empty; drafts do not touch balances.
	SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error

	// ReplaceDraftEntries swaps a draft's entries wholesale and updates its header.
	ReplaceDraftEntries(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry) error

	// PostDraft transitions a draft to POSTED, persisting balance deltas and
	// running balances in the same database transaction.
	PostDraft(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error

	// DeleteDraft removes a draft transaction and its entries.
	DeleteDraft(ctx context.Context, transactionID string) error

	// SaveReversal persists the reversal with its entries and balance deltas and
	// marks the original transaction VOIDED with the reversal linkage, all in a
	// single database transaction. reversal.OriginalTransactionID identifies the
	// transaction being voided.
	SaveReversal(ctx context.Context, reversal domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error
}

// EntryReader defines read operations for ledger entries.
type EntryReader interface {
	// FindEntriesByTransactionID retrieves all entries associated with a single transaction.
	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// FindEntryByID retrieves a single ledger entry.
	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ListEntriesByAccountID retrieves a paginated list of posted entries for an
	// account using token-based pagination.
	ListEntriesByAccountID(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// FindPostedEntriesByAccountInRange retrieves all posted, non-voided entries for
	// an account up to and including the given date. Used by the reconciliation
	// projection.
	FindPostedEntriesByAccountInRange(ctx context.Context, accountID string, through time.Time) ([]domain.LedgerEntry, error)
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
	EntryReader
}

// TransactionRepositoryWithTx extends TransactionRepositoryFacade with database
// transaction capabilities.
type TransactionRepositoryWithTx interface {
	TransactionRepositoryFacade
	TransactionManager
}
