package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/core/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

type OrganizationServiceTestSuite struct {
	suite.Suite
	mockOrgRepo  *MockOrganizationRepository
	mockUserRepo *MockUserRepository
	service      portssvc.OrganizationSvcFacade

	organizationID string
	userID         string
}

func (suite *OrganizationServiceTestSuite) SetupTest() {
	suite.mockOrgRepo = new(MockOrganizationRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewOrganizationService(suite.mockOrgRepo, suite.mockUserRepo)

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
}

func (suite *OrganizationServiceTestSuite) membership(role domain.OrganizationRole) *domain.UserOrganization {
	return &domain.UserOrganization{
		UserID:         suite.userID,
		OrganizationID: suite.organizationID,
		Role:           role,
	}
}

func (suite *OrganizationServiceTestSuite) TestCreateOrganization_CreatorBecomesOwner() {
	ctx := context.Background()
	req := dto.CreateOrganizationRequest{Name: "Acme Books", BaseCurrencyCode: "USD"}

	suite.mockOrgRepo.On("SaveOrganization", mock.Anything, mock.AnythingOfType("domain.Organization"), mock.AnythingOfType("domain.UserOrganization")).Return(nil).Once()

	org, err := suite.service.CreateOrganization(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(org)
	suite.NotEmpty(org.OrganizationID)
	suite.Equal("USD", org.BaseCurrencyCode)
	suite.True(org.IsActive)

	saveCall := suite.mockOrgRepo.Calls[0]
	membership := saveCall.Arguments.Get(2).(domain.UserOrganization)
	suite.Equal(domain.RoleOwner, membership.Role)
	suite.Equal(suite.userID, membership.UserID)
	suite.mockOrgRepo.AssertExpectations(suite.T())
}

func (suite *OrganizationServiceTestSuite) TestAuthorizeUserAction_RolePrecedence() {
	ctx := context.Background()

	// A MEMBER covers read-only and member actions but not admin ones.
	suite.mockOrgRepo.On("FindMembership", mock.Anything, suite.userID, suite.organizationID).Return(suite.membership(domain.RoleMember), nil).Times(3)

	suite.NoError(suite.service.AuthorizeUserAction(ctx, suite.userID, suite.organizationID, domain.RoleReadOnly))
	suite.NoError(suite.service.AuthorizeUserAction(ctx, suite.userID, suite.organizationID, domain.RoleMember))

	err := suite.service.AuthorizeUserAction(ctx, suite.userID, suite.organizationID, domain.RoleAdmin)
	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrForbidden))
}

func (suite *OrganizationServiceTestSuite) TestAuthorizeUserAction_NonMemberSeesNotFound() {
	ctx := context.Background()

	suite.mockOrgRepo.On("FindMembership", mock.Anything, suite.userID, suite.organizationID).Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.AuthorizeUserAction(ctx, suite.userID, suite.organizationID, domain.RoleReadOnly)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrNotFound), "Outsiders must not learn the organization exists")
}

func (suite *OrganizationServiceTestSuite) TestAddMember_Success() {
	ctx := context.Background()
	newMemberID := uuid.NewString()
	req := dto.AddMemberRequest{UserID: newMemberID, Role: domain.RoleMember}

	suite.mockOrgRepo.On("FindMembership", mock.Anything, suite.userID, suite.organizationID).Return(suite.membership(domain.RoleAdmin), nil).Once()
	suite.mockUserRepo.On("FindUserByID", mock.Anything, newMemberID).Return(&domain.User{UserID: newMemberID, IsActive: true}, nil).Once()
	suite.mockOrgRepo.On("SaveMembership", mock.Anything, mock.AnythingOfType("domain.UserOrganization")).Return(nil).Once()

	err := suite.service.AddMember(ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockOrgRepo.AssertExpectations(suite.T())
}

func (suite *OrganizationServiceTestSuite) TestAddMember_OnlyOwnersMintOwners() {
	ctx := context.Background()
	req := dto.AddMemberRequest{UserID: uuid.NewString(), Role: domain.RoleOwner}

	// The admin check passes, the owner check does not.
	suite.mockOrgRepo.On("FindMembership", mock.Anything, suite.userID, suite.organizationID).Return(suite.membership(domain.RoleAdmin), nil).Twice()

	err := suite.service.AddMember(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrForbidden))
	suite.mockOrgRepo.AssertNotCalled(suite.T(), "SaveMembership", mock.Anything, mock.Anything)
}

func (suite *OrganizationServiceTestSuite) TestAddMember_UnknownUserRejected() {
	ctx := context.Background()
	newMemberID := uuid.NewString()
	req := dto.AddMemberRequest{UserID: newMemberID, Role: domain.RoleMember}

	suite.mockOrgRepo.On("FindMembership", mock.Anything, suite.userID, suite.organizationID).Return(suite.membership(domain.RoleAdmin), nil).Once()
	suite.mockUserRepo.On("FindUserByID", mock.Anything, newMemberID).Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.AddMember(ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
	suite.mockOrgRepo.AssertNotCalled(suite.T(), "SaveMembership", mock.Anything, mock.Anything)
}

func TestOrganizationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrganizationServiceTestSuite))
}
