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
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/core/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

type BankAccountServiceTestSuite struct {
	suite.Suite
	mockBankRepo    *MockBankAccountRepository
	mockAccountRepo *MockAccountRepository
	mockOrgSvc      *MockOrganizationService
	service         portssvc.BankAccountSvcFacade

	organizationID string
	userID         string
	glAccount      domain.Account
}

func (suite *BankAccountServiceTestSuite) SetupTest() {
	suite.mockBankRepo = new(MockBankAccountRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockOrgSvc = new(MockOrganizationService)
	suite.service = services.NewBankAccountService(suite.mockBankRepo, suite.mockAccountRepo, suite.mockOrgSvc)

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.glAccount = domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		Code:           "1010",
		Name:           "Checking",
		AccountType:    domain.Asset,
		CurrencyCode:   "USD",
		IsActive:       true,
		Balance:        decimal.RequireFromString("500.00"),
	}
}

func (suite *BankAccountServiceTestSuite) expectAuth(role domain.OrganizationRole, err error) {
	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, role).Return(err).Once()
}

func (suite *BankAccountServiceTestSuite) TestCreateBankAccount_Success() {
	ctx := context.Background()
	req := dto.CreateBankAccountRequest{
		Name:           "Operating Account",
		GLAccountID:    suite.glAccount.AccountID,
		OpeningBalance: decimal.RequireFromString("100.00"),
	}

	suite.expectAuth(domain.RoleAdmin, nil)
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.glAccount.AccountID).Return(&suite.glAccount, nil).Once()
	suite.mockBankRepo.On("SaveBankAccount", mock.Anything, mock.AnythingOfType("domain.BankAccount")).Return(nil).Once()

	bankAccount, err := suite.service.CreateBankAccount(ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(bankAccount)
	suite.Equal(suite.glAccount.AccountID, bankAccount.GLAccountID)
	suite.Equal("USD", bankAccount.CurrencyCode, "Bank account inherits the GL account currency")
	suite.True(bankAccount.CurrentBalance.Equal(decimal.RequireFromString("600.00")), "Current balance is opening plus GL balance")
	suite.Nil(bankAccount.LastReconciledDate)
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *BankAccountServiceTestSuite) TestCreateBankAccount_NonAssetGLRejected() {
	ctx := context.Background()
	suite.glAccount.AccountType = domain.Expense
	req := dto.CreateBankAccountRequest{
		Name:        "Operating Account",
		GLAccountID: suite.glAccount.AccountID,
	}

	suite.expectAuth(domain.RoleAdmin, nil)
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.glAccount.AccountID).Return(&suite.glAccount, nil).Once()

	bankAccount, err := suite.service.CreateBankAccount(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(bankAccount)
	suite.True(errors.Is(err, services.ErrGLAccountNotAsset))
	suite.mockBankRepo.AssertNotCalled(suite.T(), "SaveBankAccount", mock.Anything, mock.Anything)
}

func (suite *BankAccountServiceTestSuite) TestCreateBankAccount_CrossOrgGLHidden() {
	ctx := context.Background()
	suite.glAccount.OrganizationID = uuid.NewString()
	req := dto.CreateBankAccountRequest{
		Name:        "Operating Account",
		GLAccountID: suite.glAccount.AccountID,
	}

	suite.expectAuth(domain.RoleAdmin, nil)
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.glAccount.AccountID).Return(&suite.glAccount, nil).Once()

	_, err := suite.service.CreateBankAccount(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *BankAccountServiceTestSuite) bankAccount() *domain.BankAccount {
	return &domain.BankAccount{
		BankAccountID:  uuid.NewString(),
		OrganizationID: suite.organizationID,
		Name:           "Operating Account",
		GLAccountID:    suite.glAccount.AccountID,
		CurrencyCode:   "USD",
		OpeningBalance: decimal.RequireFromString("100.00"),
	}
}

func (suite *BankAccountServiceTestSuite) TestGetBankAccountByID_RefreshesCurrentBalance() {
	ctx := context.Background()
	bankAccount := suite.bankAccount()

	suite.expectAuth(domain.RoleReadOnly, nil)
	suite.mockBankRepo.On("FindBankAccountByID", mock.Anything, bankAccount.BankAccountID).Return(bankAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.glAccount.AccountID).Return(&suite.glAccount, nil).Once()

	result, err := suite.service.GetBankAccountByID(ctx, suite.organizationID, bankAccount.BankAccountID, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.CurrentBalance.Equal(decimal.RequireFromString("600.00")))
}

func (suite *BankAccountServiceTestSuite) TestImportBankTransactions_ReportsSkippedDuplicates() {
	ctx := context.Background()
	bankAccount := suite.bankAccount()
	date := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	req := dto.ImportBankTransactionsRequest{
		Transactions: []dto.BankFeedRow{
			{Date: date, Amount: decimal.RequireFromString("50.00"), Direction: domain.DirectionDeposit, Reference: "D-1"},
			{Date: date, Amount: decimal.RequireFromString("20.00"), Direction: domain.DirectionWithdrawal, Reference: "W-1"},
			{Date: date, Amount: decimal.RequireFromString("50.00"), Direction: domain.DirectionDeposit, Reference: "D-1"},
		},
	}

	suite.expectAuth(domain.RoleMember, nil)
	suite.mockBankRepo.On("FindBankAccountByID", mock.Anything, bankAccount.BankAccountID).Return(bankAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.glAccount.AccountID).Return(&suite.glAccount, nil).Once()
	suite.mockBankRepo.On("SaveBankTransactions", mock.Anything, mock.AnythingOfType("[]domain.BankTransaction")).Return(2, nil).Once()

	resp, err := suite.service.ImportBankTransactions(ctx, suite.organizationID, bankAccount.BankAccountID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(2, resp.Imported)
	suite.Equal(1, resp.Skipped)
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *BankAccountServiceTestSuite) TestImportBankTransactions_NonPositiveAmountRejected() {
	ctx := context.Background()
	bankAccount := suite.bankAccount()
	req := dto.ImportBankTransactionsRequest{
		Transactions: []dto.BankFeedRow{
			{Date: time.Now(), Amount: decimal.Zero, Direction: domain.DirectionDeposit},
		},
	}

	suite.expectAuth(domain.RoleMember, nil)
	suite.mockBankRepo.On("FindBankAccountByID", mock.Anything, bankAccount.BankAccountID).Return(bankAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.glAccount.AccountID).Return(&suite.glAccount, nil).Once()

	_, err := suite.service.ImportBankTransactions(ctx, suite.organizationID, bankAccount.BankAccountID, req, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.mockBankRepo.AssertNotCalled(suite.T(), "SaveBankTransactions", mock.Anything, mock.Anything)
}

func TestBankAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BankAccountServiceTestSuite))
}
