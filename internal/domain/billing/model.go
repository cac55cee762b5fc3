package billing

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a subscription tier. Plans are shared across groups and managed
// out of band, so the API exposes them read-only.
type Plan struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	PriceCents       int64     `db:"price_cents" json:"price_cents"`
	Currency         string    `db:"currency" json:"currency"`
	MaxPractitioners int       `db:"max_practitioners" json:"max_practitioners"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// SubscriptionStatus tracks whether a group's plan is paid up.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription binds one group to one plan. A group has at most one
// current subscription.
type Subscription struct {
	ID               uuid.UUID          `db:"id" json:"id"`
	GroupID          uuid.UUID          `db:"group_id" json:"group_id"`
	PlanID           uuid.UUID          `db:"plan_id" json:"plan_id"`
	Status           SubscriptionStatus `db:"status" json:"status"`
	CurrentPeriodEnd time.Time          `db:"current_period_end" json:"current_period_end"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// TenantID implements account.TenantScoped.
func (s *Subscription) TenantID() uuid.UUID { return s.GroupID }
