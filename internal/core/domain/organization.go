package domain

// OrganizationRole defines what a member may do inside an organization.
type OrganizationRole string

const (
	RoleOwner    OrganizationRole = "OWNER"
	RoleAdmin    OrganizationRole = "ADMIN"
	RoleMember   OrganizationRole = "MEMBER"
	RoleReadOnly OrganizationRole = "READ_ONLY"
)

// rolePrecedence orders roles from weakest to strongest.
var rolePrecedence = map[OrganizationRole]int{
	RoleReadOnly: 1,
	RoleMember:   2,
	RoleAdmin:    3,
	RoleOwner:    4,
}

// Covers reports whether a member holding this role satisfies the required
// role.
func (r OrganizationRole) Covers(required OrganizationRole) bool {
	return rolePrecedence[r] >= rolePrecedence[required]
}

// Organization is the tenant boundary. Every core operation takes an
// explicit organization id; there is no ambient "current organization".
type Organization struct {
	OrganizationID   string `json:"organizationID"` // Primary Key (UUID)
	Name             string `json:"name"`
	BaseCurrencyCode string `json:"baseCurrencyCode"` // Currency the balance invariant is checked in
	IsActive         bool   `json:"isActive"`
	AuditFields
}

// UserOrganization is the membership join with its role.
type UserOrganization struct {
	UserID         string           `json:"userID"`
	OrganizationID string           `json:"organizationID"`
	Role           OrganizationRole `json:"role"`
	AuditFields
}
