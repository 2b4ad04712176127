package services

import (
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
)

// NewServiceContainer wires the services together. Ordering matters: the
// organization service is built first because everything else depends on it
// for tenant authorization, and the matching service last because it layers
// on top of the reconciliation service.
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Organization = NewOrganizationService(repos.OrganizationRepo, repos.UserRepo)
	container.User = NewUserService(repos.UserRepo)
	container.Account = NewAccountService(repos.AccountRepo, container.Organization)
	container.Ledger = NewLedgerService(repos.TransactionRepo, repos.AccountRepo, container.Organization)
	container.BankAccount = NewBankAccountService(repos.BankAccountRepo, repos.AccountRepo, container.Organization)
	container.Reconciliation = NewReconciliationService(
		repos.ReconciliationRepo,
		repos.BankAccountRepo,
		repos.TransactionRepo,
		container.Ledger,
		container.Organization,
	)
	container.Matching = NewMatchingService(repos.ReconciliationRepo, container.Reconciliation, container.Organization)

	return container
}
