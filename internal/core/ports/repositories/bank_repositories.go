package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BankAccountReader defines read operations for bank account data.
type BankAccountReader interface {
	// FindBankAccountByID retrieves a specific bank account.
	FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error)

	// ListBankAccounts retrieves the bank accounts of an organization.
	ListBankAccounts(ctx context.Context, organizationID string) ([]domain.BankAccount, error)
}

// BankAccountWriter defines write operations for bank account data.
type BankAccountWriter interface {
	// SaveBankAccount persists a new bank account.
	SaveBankAccount(ctx context.Context, bankAccount domain.BankAccount) error

	// UpdateLastReconciledInTx stamps the bank account with the result of a
	// finalized session, within the finalize transaction.
	UpdateLastReconciledInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, reconciledDate time.Time, reconciledBalance decimal.Decimal, userID string, now time.Time) error
}

// BankTransactionReader defines read operations for imported feed rows.
type BankTransactionReader interface {
	// FindBankTransactionByID retrieves a single feed row.
	FindBankTransactionByID(ctx context.Context, bankTransactionID string) (*domain.BankTransaction, error)

	// FindUnlockedByBankAccount retrieves feed rows not yet locked by a finalized
	// session, dated up to and including the given date.
	FindUnlockedByBankAccount(ctx context.Context, bankAccountID string, through time.Time) ([]domain.BankTransaction, error)
}

// BankTransactionWriter defines write operations for imported feed rows.
type BankTransactionWriter interface {
	// SaveBankTransactions bulk-inserts feed rows, skipping duplicates on the
	// (bank_account_id, reference, transaction_date, amount, direction) key.
	// It returns the number of rows actually inserted.
	SaveBankTransactions(ctx context.Context, rows []domain.BankTransaction) (int, error)

	// LockBankTransactionsInTx stamps feed rows with the finalizing
	// reconciliation id, within the finalize transaction.
	LockBankTransactionsInTx(ctx context.Context, tx pgx.Tx, bankTransactionIDs []string, reconciliationID string, userID string, now time.Time) error
}

// BankAccountRepositoryFacade combines all bank-side repository interfaces.
type BankAccountRepositoryFacade interface {
	BankAccountReader
	BankAccountWriter
	BankTransactionReader
	BankTransactionWriter
}
