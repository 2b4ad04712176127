package services

import (
	"context"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountReaderSvc defines read operations for the chart of accounts.
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, organizationID string, accountID string, userID string) (*domain.Account, error)

	// GetAccountByCode retrieves an account by its user-facing code.
	GetAccountByCode(ctx context.Context, organizationID string, code string, userID string) (*domain.Account, error)

	// GetAccountByIDs retrieves multiple accounts by their IDs.
	GetAccountByIDs(ctx context.Context, organizationID string, accountIDs []string, userID string) (map[string]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts for an organization.
	ListAccounts(ctx context.Context, organizationID string, userID string, limit int, offset int) ([]domain.Account, error)

	// GetAccountBalance returns the persisted running balance of an account.
	GetAccountBalance(ctx context.Context, organizationID string, accountID string, userID string) (decimal.Decimal, error)
}

// AccountWriterSvc defines write operations for the chart of accounts.
type AccountWriterSvc interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, organizationID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// UpdateAccount updates an existing account's metadata.
	UpdateAccount(ctx context.Context, organizationID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive. Accounts with ledger
	// activity are never deleted, only deactivated.
	DeactivateAccount(ctx context.Context, organizationID string, accountID string, userID string) error
}

// AccountSvcFacade combines all account-related service interfaces.
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
