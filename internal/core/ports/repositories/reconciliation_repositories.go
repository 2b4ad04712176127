package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
)

// ReconciliationReader defines read operations for reconciliation sessions.
type ReconciliationReader interface {
	// FindReconciliationByID retrieves a specific session.
	FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error)

	// FindOpenByBankAccount retrieves the IN_PROGRESS session for a bank account,
	// or ErrNotFound when none is open.
	FindOpenByBankAccount(ctx context.Context, bankAccountID string) (*domain.Reconciliation, error)

	// ListReconciliationsByBankAccount retrieves sessions for a bank account,
	// newest first.
	ListReconciliationsByBankAccount(ctx context.Context, bankAccountID string, limit int) ([]domain.Reconciliation, error)

	// FindLockedEntryIDs returns the book-side item ids referenced by any
	// finalized session of the bank account.
	FindLockedEntryIDs(ctx context.Context, bankAccountID string) (map[string]struct{}, error)
}

// ReconciliationWriter defines write operations for reconciliation sessions.
type ReconciliationWriter interface {
	// SaveReconciliation persists a new session.
	SaveReconciliation(ctx context.Context, reconciliation domain.Reconciliation) error

	// UpdateClearedSets replaces the cleared id sets, guarded by the session
	// version read alongside them. Rejects with ErrConflict when a concurrent
	// update moved the version, and with ErrLockedSession when the session is
	// already FINALIZED.
	UpdateClearedSets(ctx context.Context, reconciliationID string, clearedEntryIDs []string, clearedBankTransactionIDs []string, version int64, userID string, now time.Time) error

	// FinalizeReconciliationInTx transitions the session to FINALIZED within the
	// given database transaction, locking the session row. Rejects with
	// ErrLockedSession if already finalized and with ErrConflict when the
	// cleared sets changed since the caller read the given version.
	FinalizeReconciliationInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, version int64, userID string, now time.Time) error
}

// ReconciliationRepositoryFacade combines all reconciliation repository interfaces.
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}

// ReconciliationRepositoryWithTx extends ReconciliationRepositoryFacade with
// database transaction capabilities.
type ReconciliationRepositoryWithTx interface {
	ReconciliationRepositoryFacade
	TransactionManager
}
