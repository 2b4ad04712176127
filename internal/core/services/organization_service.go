package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
	"github.com/kitabuhq/kitabu_backend/internal/middleware"
)

// organizationService manages tenants and enforces membership-based access.
type organizationService struct {
	orgRepo  portsrepo.OrganizationRepositoryFacade
	userRepo portsrepo.UserRepositoryFacade
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo portsrepo.OrganizationRepositoryFacade, userRepo portsrepo.UserRepositoryFacade) portssvc.OrganizationSvcFacade {
	return &organizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
	}
}

var _ portssvc.OrganizationSvcFacade = (*organizationService)(nil)

// AuthorizeUserAction verifies the user holds at least the required role in
// the organization. Non-members get ErrNotFound so the organization's
// existence is not revealed to outsiders.
func (s *organizationService) AuthorizeUserAction(ctx context.Context, userID string, organizationID string, requiredRole domain.OrganizationRole) error {
	membership, err := s.orgRepo.FindMembership(ctx, userID, organizationID)
	if err != nil {
		return err
	}
	if !membership.Role.Covers(requiredRole) {
		return fmt.Errorf("%w: role %s does not cover %s", apperrors.ErrForbidden, membership.Role, requiredRole)
	}
	return nil
}

func (s *organizationService) CreateOrganization(ctx context.Context, req dto.CreateOrganizationRequest, creatorUserID string) (*domain.Organization, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	org := domain.Organization{
		OrganizationID:   uuid.NewString(),
		Name:             req.Name,
		BaseCurrencyCode: req.BaseCurrencyCode,
		IsActive:         true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	creatorMembership := domain.UserOrganization{
		UserID:         creatorUserID,
		OrganizationID: org.OrganizationID,
		Role:           domain.RoleOwner,
		AuditFields:    org.AuditFields,
	}

	if err := s.orgRepo.SaveOrganization(ctx, org, creatorMembership); err != nil {
		logger.Error("failed to save organization", "error", err)
		return nil, err
	}

	logger.Info("organization created", "organizationID", org.OrganizationID, "createdBy", creatorUserID)
	return &org, nil
}

func (s *organizationService) GetOrganizationByID(ctx context.Context, organizationID string, userID string) (*domain.Organization, error) {
	if err := s.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.orgRepo.FindOrganizationByID(ctx, organizationID)
}

func (s *organizationService) ListUserOrganizations(ctx context.Context, userID string) ([]domain.Organization, error) {
	return s.orgRepo.ListUserOrganizations(ctx, userID)
}

func (s *organizationService) AddMember(ctx context.Context, organizationID string, req dto.AddMemberRequest, requestingUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.AuthorizeUserAction(ctx, requestingUserID, organizationID, domain.RoleAdmin); err != nil {
		return err
	}

	// Only owners may mint other owners.
	if req.Role == domain.RoleOwner {
		if err := s.AuthorizeUserAction(ctx, requestingUserID, organizationID, domain.RoleOwner); err != nil {
			return err
		}
	}

	if _, err := s.userRepo.FindUserByID(ctx, req.UserID); err != nil {
		return fmt.Errorf("cannot add member: %w", err)
	}

	now := time.Now()
	membership := domain.UserOrganization{
		UserID:         req.UserID,
		OrganizationID: organizationID,
		Role:           req.Role,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}

	if err := s.orgRepo.SaveMembership(ctx, membership); err != nil {
		logger.Error("failed to save membership", "error", err, "organizationID", organizationID, "memberUserID", req.UserID)
		return err
	}

	logger.Info("member added to organization", "organizationID", organizationID, "memberUserID", req.UserID, "role", req.Role)
	return nil
}
