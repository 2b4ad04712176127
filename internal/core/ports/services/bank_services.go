package services

import (
	"context"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// BankAccountSvcFacade defines operations on bank accounts and their
// imported statement feed.
type BankAccountSvcFacade interface {
	// CreateBankAccount registers a bank account against its GL account.
	CreateBankAccount(ctx context.Context, organizationID string, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error)

	// GetBankAccountByID retrieves a bank account with its derived current balance.
	GetBankAccountByID(ctx context.Context, organizationID string, bankAccountID string, userID string) (*domain.BankAccount, error)

	// ListBankAccounts retrieves the organization's bank accounts.
	ListBankAccounts(ctx context.Context, organizationID string, userID string) ([]domain.BankAccount, error)

	// ImportBankTransactions bulk-inserts normalized feed rows from the
	// external importer, skipping duplicates.
	ImportBankTransactions(ctx context.Context, organizationID string, bankAccountID string, req dto.ImportBankTransactionsRequest, userID string) (*dto.ImportBankTransactionsResponse, error)
}
