package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository runs the aggregate queries. practitionerID, when non-nil,
// narrows appointment counts to one practitioner.
type Repository interface {
	AppointmentsPerDay(ctx context.Context, groupID uuid.UUID, practitionerID *uuid.UUID, from, to time.Time) ([]DayCount, error)
	AppointmentsByStatus(ctx context.Context, groupID uuid.UUID, practitionerID *uuid.UUID, from, to time.Time) (map[string]int, error)
	ActivePatients(ctx context.Context, groupID uuid.UUID) (int, error)
	ActivePractitioners(ctx context.Context, groupID uuid.UUID) (int, error)
}
