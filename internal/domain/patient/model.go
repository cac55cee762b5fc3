package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient belongs to one group, normally through the account that registered
// it. Soft-deletable like practitioners.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	GroupID   uuid.UUID  `db:"group_id" json:"group_id"`
	AccountID *uuid.UUID `db:"account_id" json:"account_id,omitempty"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// TenantID implements account.TenantScoped.
func (p *Patient) TenantID() uuid.UUID { return p.GroupID }

func (p *Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
