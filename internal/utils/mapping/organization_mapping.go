package mapping

import (
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/models"
)

// ToModelOrganization converts a domain Organization to a model Organization.
func ToModelOrganization(d domain.Organization) models.Organization {
	return models.Organization{
		OrganizationID:   d.OrganizationID,
		Name:             d.Name,
		BaseCurrencyCode: d.BaseCurrencyCode,
		IsActive:         d.IsActive,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainOrganization converts a model Organization to a domain Organization.
func ToDomainOrganization(m models.Organization) domain.Organization {
	return domain.Organization{
		OrganizationID:   m.OrganizationID,
		Name:             m.Name,
		BaseCurrencyCode: m.BaseCurrencyCode,
		IsActive:         m.IsActive,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelUserOrganization converts a domain membership to its model form.
func ToModelUserOrganization(d domain.UserOrganization) models.UserOrganization {
	return models.UserOrganization{
		UserID:         d.UserID,
		OrganizationID: d.OrganizationID,
		Role:           string(d.Role),
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainUserOrganization converts a model membership to its domain form.
func ToDomainUserOrganization(m models.UserOrganization) domain.UserOrganization {
	return domain.UserOrganization{
		UserID:         m.UserID,
		OrganizationID: m.OrganizationID,
		Role:           domain.OrganizationRole(m.Role),
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}
