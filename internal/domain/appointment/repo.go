package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows List queries. Nil pointer fields are ignored.
type Filter struct {
	PractitionerID *uuid.UUID
	PatientID      *uuid.UUID
	BlockID        *uuid.UUID
	Status         *Status
	Date           *Date
	Active         bool
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, groupID uuid.UUID, f Filter, limit, offset int) ([]*Appointment, int, error)
	// ListForDate returns every active appointment of one practitioner on
	// one date, across all blocks and statuses. The validation engine
	// filters cancelled rows itself.
	ListForDate(ctx context.Context, practitionerID uuid.UUID, date Date) ([]*Appointment, error)
}

// Booker runs fn inside one transaction that holds an exclusive lock on the
// given key, serializing competing bookings for the same practitioner and
// date. Repository calls made with the context fn receives join the
// transaction. Implementations translate commit-time lock or serialization
// failures into a retryable conflict error.
type Booker interface {
	Book(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
