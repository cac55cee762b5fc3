package notice

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
)

// Priority orders notices in client inboxes and picks the push channel
// treatment.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "alta"
	PriorityUrgent Priority = "urgente"
)

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityNormal, nil
	}
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", apperr.NewValidation("priority", "unknown priority: %s", s)
}

// Notice is an announcement for one account or the whole group. A nil
// TargetAccountID broadcasts. PushID records the provider's notification id
// when delivery was attempted.
type Notice struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	GroupID         uuid.UUID  `db:"group_id" json:"group_id"`
	Title           string     `db:"title" json:"title"`
	Message         string     `db:"message" json:"message"`
	Priority        Priority   `db:"priority" json:"priority"`
	TargetAccountID *uuid.UUID `db:"target_account_id" json:"target_account_id,omitempty"`
	Read            bool       `db:"read" json:"read"`
	PushID          string     `db:"push_id" json:"push_id,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// TenantID implements account.TenantScoped.
func (n *Notice) TenantID() uuid.UUID { return n.GroupID }
