package services

import (
	"context"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// LedgerPosterSvc defines the posting engine's write surface.
type LedgerPosterSvc interface {
	// PostTransaction validates and commits a balanced set of debit/credit
	// lines, either directly POSTED or as an editable DRAFT.
	PostTransaction(ctx context.Context, organizationID string, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, error)

	// PostTypedTransaction is PostTransaction with a server-assigned transaction
	// type. Used by the reconciliation adjustment poster.
	PostTypedTransaction(ctx context.Context, organizationID string, req dto.CreateTransactionRequest, txnType domain.TransactionType, creatorUserID string) (*domain.Transaction, error)

	// UpdateDraft replaces a draft's line items wholesale.
	UpdateDraft(ctx context.Context, organizationID string, transactionID string, req dto.UpdateDraftRequest, userID string) (*domain.Transaction, error)

	// PostDraft revalidates and posts a draft transaction.
	PostDraft(ctx context.Context, organizationID string, transactionID string, userID string) (*domain.Transaction, error)

	// DeleteDraft removes a draft transaction. Posted transactions are immutable.
	DeleteDraft(ctx context.Context, organizationID string, transactionID string, userID string) error

	// ReverseTransaction posts an offsetting transaction against a posted one,
	// marking the original VOIDED. The original is never altered otherwise.
	ReverseTransaction(ctx context.Context, organizationID string, transactionID string, reason string, userID string) (*domain.Transaction, error)
}

// LedgerReaderSvc defines the read surface over transactions and entries.
type LedgerReaderSvc interface {
	// GetTransactionByID retrieves a transaction with its entries.
	GetTransactionByID(ctx context.Context, organizationID string, transactionID string, userID string) (*domain.Transaction, error)

	// ListTransactions retrieves a paginated list of transactions.
	ListTransactions(ctx context.Context, organizationID string, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// ListEntriesByAccount retrieves a paginated list of posted entries for an account.
	ListEntriesByAccount(ctx context.Context, organizationID string, accountID string, userID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerSvcFacade combines the posting engine and its read surface.
type LedgerSvcFacade interface {
	LedgerPosterSvc
	LedgerReaderSvc
}
