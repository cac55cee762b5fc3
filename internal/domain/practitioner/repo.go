package practitioner

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Practitioner) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	Update(ctx context.Context, p *Practitioner) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// List returns practitioners of a group filtered by the active flag.
	List(ctx context.Context, groupID uuid.UUID, active bool, limit, offset int) ([]*Practitioner, int, error)
	SetSpecialties(ctx context.Context, practitionerID uuid.UUID, specialtyIDs []uuid.UUID) error
}

type SpecialtyRepository interface {
	Create(ctx context.Context, s *Specialty) error
	GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error)
	List(ctx context.Context) ([]*Specialty, error)
}
