package billing

import (
	"context"

	"github.com/google/uuid"
)

type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
}

type SubscriptionRepository interface {
	Upsert(ctx context.Context, s *Subscription) error
	GetByGroup(ctx context.Context, groupID uuid.UUID) (*Subscription, error)
}
