package account

import (
	"time"

	"github.com/google/uuid"
)

// Role classifies what an account can do inside its group.
type Role string

const (
	RoleSuperAdmin   Role = "superadmin"
	RoleAdmin        Role = "admin"
	RoleReception    Role = "reception"
	RolePractitioner Role = "practitioner"
	RolePatient      Role = "patient"
)

var validRoles = map[Role]bool{
	RoleSuperAdmin:   true,
	RoleAdmin:        true,
	RoleReception:    true,
	RolePractitioner: true,
	RolePatient:      true,
}

// IsValidRole returns true if the given role string is recognized.
func IsValidRole(r string) bool {
	return validRoles[Role(r)]
}

// Group is a clinic sharing the deployment. Slug doubles as the tenant
// schema suffix, so it is restricted to lowercase identifier characters.
type Group struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Account links an authenticated identity (by email) to a group and role.
// Practitioner accounts additionally reference their practitioner record.
type Account struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	GroupID        uuid.UUID  `db:"group_id" json:"group_id"`
	Role           Role       `db:"role" json:"role"`
	PractitionerID *uuid.UUID `db:"practitioner_id" json:"practitioner_id,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Scope is the resolved tenant context for a caller. It is passed explicitly
// into every scoped query. The zero Scope matches nothing: repositories
// treat a nil group as an empty result set, so an unresolved caller can
// never read another tenant's data.
type Scope struct {
	AccountID      uuid.UUID
	Email          string
	GroupID        uuid.UUID
	PractitionerID *uuid.UUID
	SuperAdmin     bool
}

// IsZero reports whether the scope resolves to no tenant at all.
func (s Scope) IsZero() bool {
	return !s.SuperAdmin && s.GroupID == uuid.Nil
}

// Covers reports whether the scope may see rows belonging to groupID.
func (s Scope) Covers(groupID uuid.UUID) bool {
	if s.SuperAdmin {
		return true
	}
	return s.GroupID != uuid.Nil && s.GroupID == groupID
}

// TenantScoped is implemented by every entity that belongs to a group.
type TenantScoped interface {
	TenantID() uuid.UUID
}

// TenantID implements TenantScoped.
func (a *Account) TenantID() uuid.UUID { return a.GroupID }
