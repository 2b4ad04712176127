package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// Shared mocks for the service test suites. All suites live in this package,
// so each repository and service port is mocked exactly once here.

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, organizationID string, code string) (*domain.Account, error) {
	args := m.Called(ctx, organizationID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, organizationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) HasLedgerActivity(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, balanceChanges, userID, now)
	return args.Error(0)
}

// MockTransactionRepository is a mock type for the TransactionRepositoryWithTx interface
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByOrganization(ctx context.Context, organizationID string, limit int, nextToken *string, includeReversals bool) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, organizationID, limit, nextToken, includeReversals)
	var txns []domain.Transaction
	if args.Get(0) != nil {
		txns = args.Get(0).([]domain.Transaction)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return txns, token, args.Error(2)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, txn, entries, balanceChanges)
	return args.Error(0)
}

func (m *MockTransactionRepository) ReplaceDraftEntries(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry) error {
	args := m.Called(ctx, txn, entries)
	return args.Error(0)
}

func (m *MockTransactionRepository) PostDraft(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, txn, entries, balanceChanges)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteDraft(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockTransactionRepository) SaveReversal(ctx context.Context, reversal domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, reversal, entries, balanceChanges)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockTransactionRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockTransactionRepository) ListEntriesByAccountID(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, organizationID, accountID, limit, nextToken)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

func (m *MockTransactionRepository) FindPostedEntriesByAccountInRange(ctx context.Context, accountID string, through time.Time) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, through)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockTransactionRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockTransactionRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// MockBankAccountRepository is a mock type for the BankAccountRepositoryFacade interface
type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) ListBankAccounts(ctx context.Context, organizationID string) ([]domain.BankAccount, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) SaveBankAccount(ctx context.Context, bankAccount domain.BankAccount) error {
	args := m.Called(ctx, bankAccount)
	return args.Error(0)
}

func (m *MockBankAccountRepository) UpdateLastReconciledInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, reconciledDate time.Time, reconciledBalance decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, bankAccountID, reconciledDate, reconciledBalance, userID, now)
	return args.Error(0)
}

func (m *MockBankAccountRepository) FindBankTransactionByID(ctx context.Context, bankTransactionID string) (*domain.BankTransaction, error) {
	args := m.Called(ctx, bankTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankTransaction), args.Error(1)
}

func (m *MockBankAccountRepository) FindUnlockedByBankAccount(ctx context.Context, bankAccountID string, through time.Time) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, bankAccountID, through)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockBankAccountRepository) SaveBankTransactions(ctx context.Context, rows []domain.BankTransaction) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}

func (m *MockBankAccountRepository) LockBankTransactionsInTx(ctx context.Context, tx pgx.Tx, bankTransactionIDs []string, reconciliationID string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, bankTransactionIDs, reconciliationID, userID, now)
	return args.Error(0)
}

// MockReconciliationRepository is a mock type for the ReconciliationRepositoryWithTx interface
type MockReconciliationRepository struct {
	mock.Mock
}

func (m *MockReconciliationRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) FindOpenByBankAccount(ctx context.Context, bankAccountID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) ListReconciliationsByBankAccount(ctx context.Context, bankAccountID string, limit int) ([]domain.Reconciliation, error) {
	args := m.Called(ctx, bankAccountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) FindLockedEntryIDs(ctx context.Context, bankAccountID string) (map[string]struct{}, error) {
	args := m.Called(ctx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockReconciliationRepository) SaveReconciliation(ctx context.Context, reconciliation domain.Reconciliation) error {
	args := m.Called(ctx, reconciliation)
	return args.Error(0)
}

func (m *MockReconciliationRepository) UpdateClearedSets(ctx context.Context, reconciliationID string, clearedEntryIDs []string, clearedBankTransactionIDs []string, version int64, userID string, now time.Time) error {
	args := m.Called(ctx, reconciliationID, clearedEntryIDs, clearedBankTransactionIDs, version, userID, now)
	return args.Error(0)
}

func (m *MockReconciliationRepository) FinalizeReconciliationInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, version int64, userID string, now time.Time) error {
	args := m.Called(ctx, tx, reconciliationID, version, userID, now)
	return args.Error(0)
}

func (m *MockReconciliationRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockReconciliationRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockReconciliationRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// MockUserRepository is a mock type for the UserRepositoryFacade interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockOrganizationRepository is a mock type for the OrganizationRepositoryFacade interface
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) FindOrganizationByID(ctx context.Context, organizationID string) (*domain.Organization, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindMembership(ctx context.Context, userID string, organizationID string) (*domain.UserOrganization, error) {
	args := m.Called(ctx, userID, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserOrganization), args.Error(1)
}

func (m *MockOrganizationRepository) ListUserOrganizations(ctx context.Context, userID string) ([]domain.Organization, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) SaveOrganization(ctx context.Context, organization domain.Organization, creatorMembership domain.UserOrganization) error {
	args := m.Called(ctx, organization, creatorMembership)
	return args.Error(0)
}

func (m *MockOrganizationRepository) SaveMembership(ctx context.Context, membership domain.UserOrganization) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

// MockOrganizationService is a mock type for the OrganizationSvcFacade interface
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) AuthorizeUserAction(ctx context.Context, userID string, organizationID string, requiredRole domain.OrganizationRole) error {
	args := m.Called(ctx, userID, organizationID, requiredRole)
	return args.Error(0)
}

func (m *MockOrganizationService) CreateOrganization(ctx context.Context, req dto.CreateOrganizationRequest, creatorUserID string) (*domain.Organization, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationService) GetOrganizationByID(ctx context.Context, organizationID string, userID string) (*domain.Organization, error) {
	args := m.Called(ctx, organizationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationService) ListUserOrganizations(ctx context.Context, userID string) ([]domain.Organization, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Organization), args.Error(1)
}

func (m *MockOrganizationService) AddMember(ctx context.Context, organizationID string, req dto.AddMemberRequest, requestingUserID string) error {
	args := m.Called(ctx, organizationID, req, requestingUserID)
	return args.Error(0)
}

// MockLedgerService is a mock type for the LedgerPosterSvc interface
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) PostTransaction(ctx context.Context, organizationID string, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, error) {
	args := m.Called(ctx, organizationID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) PostTypedTransaction(ctx context.Context, organizationID string, req dto.CreateTransactionRequest, txnType domain.TransactionType, creatorUserID string) (*domain.Transaction, error) {
	args := m.Called(ctx, organizationID, req, txnType, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) UpdateDraft(ctx context.Context, organizationID string, transactionID string, req dto.UpdateDraftRequest, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, organizationID, transactionID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) PostDraft(ctx context.Context, organizationID string, transactionID string, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, organizationID, transactionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) DeleteDraft(ctx context.Context, organizationID string, transactionID string, userID string) error {
	args := m.Called(ctx, organizationID, transactionID, userID)
	return args.Error(0)
}

func (m *MockLedgerService) ReverseTransaction(ctx context.Context, organizationID string, transactionID string, reason string, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, organizationID, transactionID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// MockReconciliationService is a mock type for the ReconciliationSvcFacade interface
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) StartSession(ctx context.Context, organizationID string, req dto.StartReconciliationRequest, userID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, organizationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockReconciliationService) GetSessionView(ctx context.Context, organizationID string, reconciliationID string, userID string) (*dto.ReconciliationResponse, error) {
	args := m.Called(ctx, organizationID, reconciliationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReconciliationResponse), args.Error(1)
}

func (m *MockReconciliationService) ToggleClear(ctx context.Context, organizationID string, reconciliationID string, req dto.ToggleClearRequest, userID string) (domain.Gap, error) {
	args := m.Called(ctx, organizationID, reconciliationID, req, userID)
	return args.Get(0).(domain.Gap), args.Error(1)
}

func (m *MockReconciliationService) Finalize(ctx context.Context, organizationID string, reconciliationID string, userID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, organizationID, reconciliationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockReconciliationService) PostAdjustment(ctx context.Context, organizationID string, reconciliationID string, req dto.PostAdjustmentRequest, userID string) (*domain.Transaction, domain.Gap, error) {
	args := m.Called(ctx, organizationID, reconciliationID, req, userID)
	var txn *domain.Transaction
	if args.Get(0) != nil {
		txn = args.Get(0).(*domain.Transaction)
	}
	return txn, args.Get(1).(domain.Gap), args.Error(2)
}

func (m *MockReconciliationService) ListClearableItems(ctx context.Context, organizationID string, reconciliationID string, userID string) ([]domain.ClearableItem, error) {
	args := m.Called(ctx, organizationID, reconciliationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClearableItem), args.Error(1)
}

func (m *MockReconciliationService) ComputeSessionGap(ctx context.Context, organizationID string, reconciliationID string, userID string) (domain.Gap, error) {
	args := m.Called(ctx, organizationID, reconciliationID, userID)
	return args.Get(0).(domain.Gap), args.Error(1)
}

func (m *MockReconciliationService) ListSessions(ctx context.Context, organizationID string, bankAccountID string, limit int, userID string) ([]domain.Reconciliation, error) {
	args := m.Called(ctx, organizationID, bankAccountID, limit, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reconciliation), args.Error(1)
}
