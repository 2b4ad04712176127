package repositories

import (
	"context"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
)

// OrganizationReader defines read operations for organization data.
type OrganizationReader interface {
	// FindOrganizationByID retrieves a specific organization.
	FindOrganizationByID(ctx context.Context, organizationID string) (*domain.Organization, error)

	// FindMembership retrieves the membership of a user in an organization,
	// or ErrNotFound when the user is not a member.
	FindMembership(ctx context.Context, userID string, organizationID string) (*domain.UserOrganization, error)

	// ListUserOrganizations retrieves the organizations a user belongs to.
	ListUserOrganizations(ctx context.Context, userID string) ([]domain.Organization, error)
}

// OrganizationWriter defines write operations for organization data.
type OrganizationWriter interface {
	// SaveOrganization persists a new organization together with its creator's
	// OWNER membership.
	SaveOrganization(ctx context.Context, organization domain.Organization, creatorMembership domain.UserOrganization) error

	// SaveMembership persists a membership row.
	SaveMembership(ctx context.Context, membership domain.UserOrganization) error
}

// OrganizationRepositoryFacade combines all organization repository interfaces.
type OrganizationRepositoryFacade interface {
	OrganizationReader
	OrganizationWriter
}
