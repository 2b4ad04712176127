package services

import (
	"context"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// OrganizationAuthorizerSvc is the narrow interface other services depend on
// to enforce tenant-scoped access.
type OrganizationAuthorizerSvc interface {
	// AuthorizeUserAction verifies the user is a member of the organization
	// with at least the required role. Returns ErrNotFound for non-members
	// (to obscure existence) and ErrForbidden for insufficient roles.
	AuthorizeUserAction(ctx context.Context, userID string, organizationID string, requiredRole domain.OrganizationRole) error
}

// OrganizationSvcFacade defines tenant management operations.
type OrganizationSvcFacade interface {
	OrganizationAuthorizerSvc

	// CreateOrganization creates a tenant with the creator as OWNER.
	CreateOrganization(ctx context.Context, req dto.CreateOrganizationRequest, creatorUserID string) (*domain.Organization, error)

	// GetOrganizationByID retrieves an organization the user belongs to.
	GetOrganizationByID(ctx context.Context, organizationID string, userID string) (*domain.Organization, error)

	// ListUserOrganizations retrieves the organizations the user belongs to.
	ListUserOrganizations(ctx context.Context, userID string) ([]domain.Organization, error)

	// AddMember adds a user to the organization with a role.
	AddMember(ctx context.Context, organizationID string, req dto.AddMemberRequest, requestingUserID string) error
}
