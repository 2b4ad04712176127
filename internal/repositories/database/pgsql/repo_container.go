package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider builds all pgsql-backed repositories over one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool, accountRepo)
	bankRepo := newPgxBankRepository(dbPool)
	reconciliationRepo := newPgxReconciliationRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)
	organizationRepo := newPgxOrganizationRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:        accountRepo,
		TransactionRepo:    transactionRepo,
		BankAccountRepo:    bankRepo,
		ReconciliationRepo: reconciliationRepo,
		UserRepo:           userRepo,
		OrganizationRepo:   organizationRepo,
	}
}
