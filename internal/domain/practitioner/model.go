package practitioner

import (
	"time"

	"github.com/google/uuid"
)

// Specialty is a medical specialty practitioners can be tagged with.
// Specialties are shared across groups.
type Specialty struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Practitioner is a doctor belonging to one group. Soft-deletable: Active
// false hides the record from regular listings but keeps history intact.
type Practitioner struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	GroupID     uuid.UUID   `db:"group_id" json:"group_id"`
	FirstName   string      `db:"first_name" json:"first_name"`
	LastName    string      `db:"last_name" json:"last_name"`
	Email       *string     `db:"email" json:"email,omitempty"`
	Phone       *string     `db:"phone" json:"phone,omitempty"`
	Specialties []Specialty `json:"specialties,omitempty"`
	Active      bool        `db:"active" json:"active"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// TenantID implements account.TenantScoped.
func (p *Practitioner) TenantID() uuid.UUID { return p.GroupID }

// FullName returns "First Last" for display and audit text.
func (p *Practitioner) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
