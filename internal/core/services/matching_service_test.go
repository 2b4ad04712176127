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
)

type MatchingServiceTestSuite struct {
	suite.Suite
	mockReconRepo *MockReconciliationRepository
	mockReconSvc  *MockReconciliationService
	mockOrgSvc    *MockOrganizationService
	service       portssvc.MatchingSvcFacade

	organizationID   string
	userID           string
	reconciliationID string
	session          *domain.Reconciliation
	baseDate         time.Time
}

func (suite *MatchingServiceTestSuite) SetupTest() {
	suite.mockReconRepo = new(MockReconciliationRepository)
	suite.mockReconSvc = new(MockReconciliationService)
	suite.mockOrgSvc = new(MockOrganizationService)
	suite.service = services.NewMatchingService(suite.mockReconRepo, suite.mockReconSvc, suite.mockOrgSvc)

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.reconciliationID = uuid.NewString()
	suite.baseDate = time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	suite.session = &domain.Reconciliation{
		ReconciliationID:          suite.reconciliationID,
		OrganizationID:            suite.organizationID,
		Status:                    domain.ReconciliationInProgress,
		ClearedEntryIDs:           []string{},
		ClearedBankTransactionIDs: []string{},
	}
}

func (suite *MatchingServiceTestSuite) entryItem(id string, amount string, daysOffset int, description string) domain.ClearableItem {
	return domain.ClearableItem{
		ItemID:      id,
		ItemType:    domain.ItemTypeEntry,
		Date:        suite.baseDate.AddDate(0, 0, daysOffset),
		Amount:      decimal.RequireFromString(amount),
		Direction:   domain.DirectionDeposit,
		Description: description,
	}
}

func (suite *MatchingServiceTestSuite) bankItem(id string, amount string, daysOffset int, reference string) domain.ClearableItem {
	return domain.ClearableItem{
		ItemID:    id,
		ItemType:  domain.ItemTypeBankTransaction,
		Date:      suite.baseDate.AddDate(0, 0, daysOffset),
		Amount:    decimal.RequireFromString(amount),
		Direction: domain.DirectionDeposit,
		Reference: reference,
	}
}

func (suite *MatchingServiceTestSuite) expectSession(items []domain.ClearableItem) {
	suite.mockReconRepo.On("FindReconciliationByID", mock.Anything, suite.reconciliationID).Return(suite.session, nil).Once()
	suite.mockReconSvc.On("ListClearableItems", mock.Anything, suite.organizationID, suite.reconciliationID, suite.userID).Return(items, nil).Once()
}

func (suite *MatchingServiceTestSuite) TestSuggest_FullAgreementScoresMaximum() {
	ctx := context.Background()
	entry := suite.entryItem(uuid.NewString(), "50.00", 0, "Payment for INV-42")
	bankRow := suite.bankItem(uuid.NewString(), "50.00", 0, "INV-42")

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleReadOnly).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{entry, bankRow})

	suggestions, err := suite.service.Suggest(ctx, suite.organizationID, suite.reconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(suggestions, 1)
	suite.Equal(entry.ItemID, suggestions[0].EntryID)
	suite.Equal(bankRow.ItemID, suggestions[0].BankTransactionID)
	suite.Equal(100, suggestions[0].Confidence)
	suite.Contains(suggestions[0].Reason, "amount and direction match")
	suite.Contains(suggestions[0].Reason, "reference text agrees")
}

func (suite *MatchingServiceTestSuite) TestSuggest_DateProximityDecaysLinearly() {
	ctx := context.Background()
	entry := suite.entryItem(uuid.NewString(), "50.00", 0, "Deposit")
	bankRow := suite.bankItem(uuid.NewString(), "50.00", 3, "ZX-9001")

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleReadOnly).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{entry, bankRow})

	suggestions, err := suite.service.Suggest(ctx, suite.organizationID, suite.reconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(suggestions, 1)
	// Base 60 plus 25*(7-3)/7 = 14 for a three-day gap, no text agreement.
	suite.Equal(74, suggestions[0].Confidence)
}

func (suite *MatchingServiceTestSuite) TestSuggest_AmountMismatchIsNoCandidate() {
	ctx := context.Background()
	entry := suite.entryItem(uuid.NewString(), "50.00", 0, "Deposit")
	bankRow := suite.bankItem(uuid.NewString(), "50.01", 0, "")

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleReadOnly).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{entry, bankRow})

	suggestions, err := suite.service.Suggest(ctx, suite.organizationID, suite.reconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.Empty(suggestions)
}

func (suite *MatchingServiceTestSuite) TestSuggest_DirectionMismatchIsNoCandidate() {
	ctx := context.Background()
	entry := suite.entryItem(uuid.NewString(), "50.00", 0, "Deposit")
	bankRow := suite.bankItem(uuid.NewString(), "50.00", 0, "")
	bankRow.Direction = domain.DirectionWithdrawal

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleReadOnly).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{entry, bankRow})

	suggestions, err := suite.service.Suggest(ctx, suite.organizationID, suite.reconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.Empty(suggestions)
}

func (suite *MatchingServiceTestSuite) TestSuggest_EachSideUsedOnce() {
	ctx := context.Background()
	olderEntry := suite.entryItem("entry-a", "50.00", -1, "Deposit")
	newerEntry := suite.entryItem("entry-b", "50.00", 0, "Deposit")
	bankRow := suite.bankItem("bank-1", "50.00", 0, "")

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleReadOnly).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{olderEntry, newerEntry, bankRow})

	suggestions, err := suite.service.Suggest(ctx, suite.organizationID, suite.reconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(suggestions, 1)
	// Same-day pair outscores the one-day-old entry.
	suite.Equal(newerEntry.ItemID, suggestions[0].EntryID)
	suite.Equal(85, suggestions[0].Confidence)
}

func (suite *MatchingServiceTestSuite) TestSuggest_ClearedItemsExcluded() {
	ctx := context.Background()
	entry := suite.entryItem(uuid.NewString(), "50.00", 0, "Deposit")
	entry.IsCleared = true
	bankRow := suite.bankItem(uuid.NewString(), "50.00", 0, "")

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleReadOnly).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{entry, bankRow})

	suggestions, err := suite.service.Suggest(ctx, suite.organizationID, suite.reconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.Empty(suggestions)
}

func (suite *MatchingServiceTestSuite) TestSuggest_FinalizedSessionRejected() {
	ctx := context.Background()
	suite.session.Status = domain.ReconciliationFinalized

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleReadOnly).Return(nil).Once()
	suite.mockReconRepo.On("FindReconciliationByID", mock.Anything, suite.reconciliationID).Return(suite.session, nil).Once()

	suggestions, err := suite.service.Suggest(ctx, suite.organizationID, suite.reconciliationID, suite.userID)

	suite.Require().Error(err)
	suite.Nil(suggestions)
	suite.True(errors.Is(err, apperrors.ErrLockedSession))
}

func (suite *MatchingServiceTestSuite) TestAutoApply_DefaultThresholdFiltersWeakPairs() {
	ctx := context.Background()
	strongEntry := suite.entryItem("entry-strong", "50.00", 0, "Payment for INV-42")
	strongBank := suite.bankItem("bank-strong", "50.00", 0, "INV-42")
	weakEntry := suite.entryItem("entry-weak", "20.00", 0, "Misc")
	weakBank := suite.bankItem("bank-weak", "20.00", 6, "")

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleMember).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{strongEntry, weakEntry, strongBank, weakBank})
	suite.mockReconRepo.On("UpdateClearedSets", mock.Anything, suite.reconciliationID, []string{"entry-strong"}, []string{"bank-strong"}, int64(0), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockReconSvc.On("ComputeSessionGap", mock.Anything, suite.organizationID, suite.reconciliationID, suite.userID).Return(domain.Gap{IsBalanced: false}, nil).Once()

	// Weak pair scores 60 + 25*(7-6)/7 = 63, below the default threshold of 80.
	applied, gap, err := suite.service.AutoApply(ctx, suite.organizationID, suite.reconciliationID, 0, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(applied, 1)
	suite.Equal("entry-strong", applied[0].EntryID)
	suite.False(gap.IsBalanced)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestAutoApply_NoQualifyingPairsSkipsWrite() {
	ctx := context.Background()
	entry := suite.entryItem(uuid.NewString(), "20.00", 0, "Misc")
	bankRow := suite.bankItem(uuid.NewString(), "20.00", 6, "")

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleMember).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{entry, bankRow})
	suite.mockReconSvc.On("ComputeSessionGap", mock.Anything, suite.organizationID, suite.reconciliationID, suite.userID).Return(domain.Gap{}, nil).Once()

	applied, _, err := suite.service.AutoApply(ctx, suite.organizationID, suite.reconciliationID, 90, suite.userID)

	suite.Require().NoError(err)
	suite.Empty(applied)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "UpdateClearedSets", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *MatchingServiceTestSuite) TestAutoApply_RetriesWithFreshSessionOnVersionConflict() {
	ctx := context.Background()
	entry := suite.entryItem("entry-strong", "50.00", 0, "Payment for INV-42")
	bankRow := suite.bankItem("bank-strong", "50.00", 0, "INV-42")

	// Another caller cleared an entry while the suggestions were being
	// computed; the stale write is rejected and redone over the fresh sets.
	fresh := &domain.Reconciliation{
		ReconciliationID:          suite.reconciliationID,
		OrganizationID:            suite.organizationID,
		Status:                    domain.ReconciliationInProgress,
		ClearedEntryIDs:           []string{"entry-concurrent"},
		ClearedBankTransactionIDs: []string{},
		Version:                   1,
	}

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleMember).Return(nil).Once()
	suite.expectSession([]domain.ClearableItem{entry, bankRow})
	suite.mockReconRepo.On("UpdateClearedSets", mock.Anything, suite.reconciliationID, []string{"entry-strong"}, []string{"bank-strong"}, int64(0), suite.userID, mock.AnythingOfType("time.Time")).Return(apperrors.ErrConflict).Once()
	suite.mockReconRepo.On("FindReconciliationByID", mock.Anything, suite.reconciliationID).Return(fresh, nil).Once()
	suite.mockReconRepo.On("UpdateClearedSets", mock.Anything, suite.reconciliationID, []string{"entry-concurrent", "entry-strong"}, []string{"bank-strong"}, int64(1), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockReconSvc.On("ComputeSessionGap", mock.Anything, suite.organizationID, suite.reconciliationID, suite.userID).Return(domain.Gap{}, nil).Once()

	applied, _, err := suite.service.AutoApply(ctx, suite.organizationID, suite.reconciliationID, 0, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(applied, 1)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestAutoApply_CrossOrgHidden() {
	ctx := context.Background()
	suite.session.OrganizationID = uuid.NewString()

	suite.mockOrgSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.organizationID, domain.RoleMember).Return(nil).Once()
	suite.mockReconRepo.On("FindReconciliationByID", mock.Anything, suite.reconciliationID).Return(suite.session, nil).Once()

	_, _, err := suite.service.AutoApply(ctx, suite.organizationID, suite.reconciliationID, 80, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func TestMatchingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MatchingServiceTestSuite))
}
