package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/core/services"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockTxnRepo     *MockTransactionRepository
	mockAccountRepo *MockAccountRepository
	mockOrgSvc      *MockOrganizationService
	service         portssvc.LedgerSvcFacade

	organizationID string
	userID         string
	cashAccount    domain.Account
	salesAccount   domain.Account
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockOrgSvc = new(MockOrganizationService)
	suite.service = services.NewLedgerService(suite.mockTxnRepo, suite.mockAccountRepo, suite.mockOrgSvc)

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.cashAccount = domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		Code:           "1000",
		Name:           "Cash",
		AccountType:    domain.Asset,
		CurrencyCode:   "USD",
		IsActive:       true,
	}
	suite.salesAccount = domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		Code:           "4000",
		Name:           "Sales",
		AccountType:    domain.Revenue,
		CurrencyCode:   "USD",
		IsActive:       true,
	}
}

func (suite *LedgerServiceTestSuite) accountsByID() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccount.AccountID:  suite.cashAccount,
		suite.salesAccount.AccountID: suite.salesAccount,
	}
}

func (suite *LedgerServiceTestSuite) expectMemberAuth() {
	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleMember).Return(nil).Once()
}

func (suite *LedgerServiceTestSuite) expectOrgLookup() {
	suite.mockOrgSvc.On("GetOrganizationByID", mock.Anything, suite.organizationID, suite.userID).Return(&domain.Organization{
		OrganizationID:   suite.organizationID,
		Name:             "Acme Books",
		BaseCurrencyCode: "USD",
		IsActive:         true,
	}, nil).Once()
}

func (suite *LedgerServiceTestSuite) balancedRequest(amount string) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "Cash sale",
		Entries: []dto.CreateEntryRequest{
			{
				AccountID:    suite.cashAccount.AccountID,
				Side:         domain.Debit,
				Amount:       decimal.RequireFromString(amount),
				CurrencyCode: "USD",
				ExchangeRate: decimal.NewFromInt(1),
			},
			{
				AccountID:    suite.salesAccount.AccountID,
				Side:         domain.Credit,
				Amount:       decimal.RequireFromString(amount),
				CurrencyCode: "USD",
				ExchangeRate: decimal.NewFromInt(1),
			},
		},
	}
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_Success() {
	ctx := context.Background()
	req := suite.balancedRequest("250.00")

	suite.expectMemberAuth()
	suite.expectOrgLookup()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", mock.Anything, mock.AnythingOfType("domain.Transaction"), mock.Anything, mock.Anything).Return(nil).Once()

	txn, err := suite.service.PostTransaction(ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(txn)
	suite.Equal(domain.Posted, txn.Status)
	suite.Equal(domain.TypeJournal, txn.TransactionType)
	suite.Equal("USD", txn.CurrencyCode)
	suite.True(txn.Amount.Equal(decimal.RequireFromString("250.00")))
	suite.Len(txn.Entries, 2)
	suite.True(txn.Entries[0].BaseAmount.Equal(decimal.RequireFromString("250.00")))

	// Posting applies balance deltas: debit adds, credit subtracts.
	saveCall := suite.mockTxnRepo.Calls[len(suite.mockTxnRepo.Calls)-1]
	changes := saveCall.Arguments.Get(3).(map[string]decimal.Decimal)
	suite.True(changes[suite.cashAccount.AccountID].Equal(decimal.RequireFromString("250.00")))
	suite.True(changes[suite.salesAccount.AccountID].Equal(decimal.RequireFromString("-250.00")))

	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockOrgSvc.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_Unbalanced() {
	ctx := context.Background()
	req := suite.balancedRequest("100.00")
	req.Entries[1].Amount = decimal.RequireFromString("99.50")

	suite.expectMemberAuth()
	suite.expectOrgLookup()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()

	txn, err := suite.service.PostTransaction(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(txn)
	var unbalanced *apperrors.UnbalancedError
	suite.Require().True(errors.As(err, &unbalanced))
	suite.True(unbalanced.Difference.Equal(decimal.RequireFromString("0.50")))
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_SubEpsilonDifferenceBalances() {
	ctx := context.Background()
	req := suite.balancedRequest("100.00")
	req.Entries[1].Amount = decimal.RequireFromString("100.005")

	suite.expectMemberAuth()
	suite.expectOrgLookup()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", mock.Anything, mock.AnythingOfType("domain.Transaction"), mock.Anything, mock.Anything).Return(nil).Once()

	txn, err := suite.service.PostTransaction(ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, txn.Status)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_DraftSkipsBalanceCheck() {
	ctx := context.Background()
	req := suite.balancedRequest("100.00")
	req.Status = string(domain.Draft)
	req.Entries[1].Amount = decimal.RequireFromString("60.00")

	suite.expectMemberAuth()
	suite.expectOrgLookup()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", mock.Anything, mock.AnythingOfType("domain.Transaction"), mock.Anything, mock.Anything).Return(nil).Once()

	txn, err := suite.service.PostTransaction(ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Draft, txn.Status)

	// Drafts never touch account balances.
	saveCall := suite.mockTxnRepo.Calls[len(suite.mockTxnRepo.Calls)-1]
	suite.Nil(saveCall.Arguments.Get(3))
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_InactiveAccount() {
	ctx := context.Background()
	req := suite.balancedRequest("40.00")
	suite.salesAccount.IsActive = false

	suite.expectMemberAuth()
	suite.expectOrgLookup()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()

	txn, err := suite.service.PostTransaction(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(txn)
	suite.True(errors.Is(err, services.ErrAccountInactive))
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_CurrencyMismatch() {
	ctx := context.Background()
	req := suite.balancedRequest("40.00")
	req.Entries[0].CurrencyCode = "EUR"

	suite.expectMemberAuth()
	suite.expectOrgLookup()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()

	_, err := suite.service.PostTransaction(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, services.ErrCurrencyMismatch))
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_ForeignOrgAccount() {
	ctx := context.Background()
	req := suite.balancedRequest("40.00")
	suite.cashAccount.OrganizationID = uuid.NewString()

	suite.expectMemberAuth()
	suite.expectOrgLookup()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()

	_, err := suite.service.PostTransaction(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_AuthorizationFailure() {
	ctx := context.Background()
	req := suite.balancedRequest("40.00")

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleMember).Return(apperrors.ErrForbidden).Once()

	_, err := suite.service.PostTransaction(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrForbidden))
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) draftEntries(transactionID string, debit, credit string) []domain.LedgerEntry {
	return []domain.LedgerEntry{
		{
			EntryID:       uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     suite.cashAccount.AccountID,
			Side:          domain.Debit,
			Amount:        decimal.RequireFromString(debit),
			CurrencyCode:  "USD",
			ExchangeRate:  decimal.NewFromInt(1),
			BaseAmount:    decimal.RequireFromString(debit),
		},
		{
			EntryID:       uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     suite.salesAccount.AccountID,
			Side:          domain.Credit,
			Amount:        decimal.RequireFromString(credit),
			CurrencyCode:  "USD",
			ExchangeRate:  decimal.NewFromInt(1),
			BaseAmount:    decimal.RequireFromString(credit),
		},
	}
}

func (suite *LedgerServiceTestSuite) TestPostDraft_Success() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	draft := &domain.Transaction{
		TransactionID:  transactionID,
		OrganizationID: suite.organizationID,
		Status:         domain.Draft,
		CurrencyCode:   "USD",
	}

	suite.expectMemberAuth()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(draft, nil).Once()
	suite.mockTxnRepo.On("FindEntriesByTransactionID", mock.Anything, transactionID).Return(suite.draftEntries(transactionID, "75.00", "75.00"), nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()
	suite.mockTxnRepo.On("PostDraft", mock.Anything, mock.AnythingOfType("domain.Transaction"), mock.Anything, mock.Anything).Return(nil).Once()

	txn, err := suite.service.PostDraft(ctx, suite.organizationID, transactionID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, txn.Status)
	suite.True(txn.Amount.Equal(decimal.RequireFromString("75.00")))
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostDraft_UnbalancedDraftRejected() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	draft := &domain.Transaction{
		TransactionID:  transactionID,
		OrganizationID: suite.organizationID,
		Status:         domain.Draft,
	}

	suite.expectMemberAuth()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(draft, nil).Once()
	suite.mockTxnRepo.On("FindEntriesByTransactionID", mock.Anything, transactionID).Return(suite.draftEntries(transactionID, "75.00", "50.00"), nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(suite.accountsByID(), nil).Once()

	_, err := suite.service.PostDraft(ctx, suite.organizationID, transactionID, suite.userID)

	suite.Require().Error(err)
	var unbalanced *apperrors.UnbalancedError
	suite.True(errors.As(err, &unbalanced))
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "PostDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostDraft_NotADraft() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	posted := &domain.Transaction{
		TransactionID:  transactionID,
		OrganizationID: suite.organizationID,
		Status:         domain.Posted,
	}

	suite.expectMemberAuth()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(posted, nil).Once()

	_, err := suite.service.PostDraft(ctx, suite.organizationID, transactionID, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, services.ErrNotDraft))
}

func (suite *LedgerServiceTestSuite) TestUpdateDraft_PostedIsImmutable() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	posted := &domain.Transaction{
		TransactionID:  transactionID,
		OrganizationID: suite.organizationID,
		Status:         domain.Posted,
	}
	req := dto.UpdateDraftRequest{Entries: suite.balancedRequest("10.00").Entries}

	suite.expectMemberAuth()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(posted, nil).Once()

	_, err := suite.service.UpdateDraft(ctx, suite.organizationID, transactionID, req, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrImmutable))
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ReplaceDraftEntries", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestDeleteDraft_Success() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	draft := &domain.Transaction{
		TransactionID:  transactionID,
		OrganizationID: suite.organizationID,
		Status:         domain.Draft,
	}

	suite.expectMemberAuth()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(draft, nil).Once()
	suite.mockTxnRepo.On("DeleteDraft", mock.Anything, transactionID).Return(nil).Once()

	err := suite.service.DeleteDraft(ctx, suite.organizationID, transactionID, suite.userID)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_Success() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	original := &domain.Transaction{
		TransactionID:   transactionID,
		OrganizationID:  suite.organizationID,
		TransactionType: domain.TypeJournal,
		Description:     "Cash sale",
		Status:          domain.Posted,
		CurrencyCode:    "USD",
		Amount:          decimal.RequireFromString("250.00"),
	}

	suite.expectMemberAuth()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(original, nil).Once()
	suite.mockTxnRepo.On("FindEntriesByTransactionID", mock.Anything, transactionID).Return(suite.draftEntries(transactionID, "250.00", "250.00"), nil).Once()
	suite.mockTxnRepo.On("SaveReversal", mock.Anything, mock.AnythingOfType("domain.Transaction"), mock.Anything, mock.Anything).Return(nil).Once()

	reversal, err := suite.service.ReverseTransaction(ctx, suite.organizationID, transactionID, "duplicate entry", suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversal)
	suite.Equal(domain.TypeReversal, reversal.TransactionType)
	suite.Equal(domain.Posted, reversal.Status)
	suite.Require().NotNil(reversal.OriginalTransactionID)
	suite.Equal(transactionID, *reversal.OriginalTransactionID)
	suite.Contains(reversal.Description, "Reversal of Cash sale")
	suite.Contains(reversal.Description, "duplicate entry")

	// Sides are flipped, amounts preserved.
	suite.Require().Len(reversal.Entries, 2)
	suite.Equal(domain.Credit, reversal.Entries[0].Side)
	suite.Equal(domain.Debit, reversal.Entries[1].Side)
	suite.True(reversal.Entries[0].Amount.Equal(decimal.RequireFromString("250.00")))
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_AlreadyVoided() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	voided := &domain.Transaction{
		TransactionID:  transactionID,
		OrganizationID: suite.organizationID,
		Status:         domain.Voided,
	}

	suite.expectMemberAuth()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(voided, nil).Once()

	_, err := suite.service.ReverseTransaction(ctx, suite.organizationID, transactionID, "again", suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, services.ErrAlreadyVoided))
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_DraftRejected() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	draft := &domain.Transaction{
		TransactionID:  transactionID,
		OrganizationID: suite.organizationID,
		Status:         domain.Draft,
	}

	suite.expectMemberAuth()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(draft, nil).Once()

	_, err := suite.service.ReverseTransaction(ctx, suite.organizationID, transactionID, "oops", suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, services.ErrReverseDraft))
}

func (suite *LedgerServiceTestSuite) TestGetTransactionByID_CrossOrgHidden() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	foreign := &domain.Transaction{
		TransactionID:  transactionID,
		OrganizationID: uuid.NewString(),
		Status:         domain.Posted,
	}

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleReadOnly).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, transactionID).Return(foreign, nil).Once()

	_, err := suite.service.GetTransactionByID(ctx, suite.organizationID, transactionID, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
