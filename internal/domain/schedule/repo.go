package schedule

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *ScheduleBlock) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduleBlock, error)
	Update(ctx context.Context, b *ScheduleBlock) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, groupID uuid.UUID, active bool, limit, offset int) ([]*ScheduleBlock, int, error)
	ListByPractitioner(ctx context.Context, practitionerID uuid.UUID, active bool) ([]*ScheduleBlock, error)
	// ListByPractitionerWeekday returns the active blocks used by the
	// overlap check.
	ListByPractitionerWeekday(ctx context.Context, practitionerID uuid.UUID, weekday Weekday) ([]*ScheduleBlock, error)
}
