package domain

import "time"

// Role is the closed set of actors a token can speak for.
type Role string

const (
	RoleCompany   Role = "company"
	RoleAgent     Role = "agent"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// Valid reports whether r belongs to the recognized enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleCompany, RoleAgent, RoleAdmin, RoleSuperuser:
		return true
	default:
		return false
	}
}

// IsOperator reports whether r is a platform operator rather than a tenant account.
func (r Role) IsOperator() bool {
	return r == RoleAdmin || r == RoleSuperuser
}

// Identity is the validated content of a role-scoped token.
type Identity struct {
	SubjectID string
	Role      Role
	// CompanyID is the tenant the subject belongs to. Empty for operators.
	CompanyID string
	ExpiresAt time.Time
}
