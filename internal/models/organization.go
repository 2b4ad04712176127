package models

// Organization represents one row of the organizations table.
type Organization struct {
	OrganizationID   string `db:"organization_id"`
	Name             string `db:"name"`
	BaseCurrencyCode string `db:"base_currency_code"`
	IsActive         bool   `db:"is_active"`
	AuditFields
}

// UserOrganization represents one row of the user_organizations join table.
type UserOrganization struct {
	UserID         string `db:"user_id"`
	OrganizationID string `db:"organization_id"`
	Role           string `db:"role"`
	AuditFields
}
