package dto

import (
	"time"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
)

// CreateOrganizationRequest defines the data needed to create an organization.
type CreateOrganizationRequest struct {
	Name             string `json:"name" binding:"required"`
	BaseCurrencyCode string `json:"baseCurrencyCode" binding:"required,len=3"`
}

// AddMemberRequest adds a user to an organization with a role.
type AddMemberRequest struct {
	UserID string                  `json:"userID" binding:"required"`
	Role   domain.OrganizationRole `json:"role" binding:"required,oneof=OWNER ADMIN MEMBER READ_ONLY"`
}

// OrganizationResponse defines the data returned for an organization.
type OrganizationResponse struct {
	OrganizationID   string    `json:"organizationID"`
	Name             string    `json:"name"`
	BaseCurrencyCode string    `json:"baseCurrencyCode"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ToOrganizationResponse converts a domain.Organization to its DTO.
func ToOrganizationResponse(o *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		OrganizationID:   o.OrganizationID,
		Name:             o.Name,
		BaseCurrencyCode: o.BaseCurrencyCode,
		IsActive:         o.IsActive,
		CreatedAt:        o.CreatedAt,
	}
}

// ToOrganizationResponses converts a slice of organizations to DTOs.
func ToOrganizationResponses(orgs []domain.Organization) []OrganizationResponse {
	res := make([]OrganizationResponse, len(orgs))
	for i, o := range orgs {
		res[i] = ToOrganizationResponse(&o)
	}
	return res
}
