package practitioner

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
)

type Service struct {
	repo        Repository
	specialties SpecialtyRepository
}

func NewService(repo Repository, specialties SpecialtyRepository) *Service {
	return &Service{repo: repo, specialties: specialties}
}

func (s *Service) Create(ctx context.Context, scope account.Scope, p *Practitioner) error {
	if scope.IsZero() {
		return apperr.NewNotFound("group", "")
	}
	if scope.SuperAdmin {
		if p.GroupID == uuid.Nil {
			return apperr.NewValidation("group_id", "group_id is required")
		}
	} else {
		p.GroupID = scope.GroupID
	}
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" && p.LastName == "" {
		return apperr.NewValidation("last_name", "a name is required")
	}
	specIDs, err := s.validateSpecialties(ctx, p.Specialties)
	if err != nil {
		return err
	}
	p.Active = true
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	if len(specIDs) > 0 {
		return s.repo.SetSpecialties(ctx, p.ID, specIDs)
	}
	return nil
}

// Get returns the practitioner when it is inside the caller's scope.
// Cross-tenant ids read as not-found.
func (s *Service) Get(ctx context.Context, scope account.Scope, id uuid.UUID) (*Practitioner, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(p.GroupID) {
		return nil, apperr.NewNotFound("practitioner", id.String())
	}
	if scope.PractitionerID != nil && *scope.PractitionerID != p.ID {
		return nil, apperr.NewNotFound("practitioner", id.String())
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, scope account.Scope, p *Practitioner) error {
	existing, err := s.Get(ctx, scope, p.ID)
	if err != nil {
		return err
	}
	p.GroupID = existing.GroupID
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" && p.LastName == "" {
		return apperr.NewValidation("last_name", "a name is required")
	}
	specIDs, err := s.validateSpecialties(ctx, p.Specialties)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	return s.repo.SetSpecialties(ctx, p.ID, specIDs)
}

func (s *Service) List(ctx context.Context, scope account.Scope, limit, offset int) ([]*Practitioner, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	if scope.PractitionerID != nil {
		p, err := s.repo.GetByID(ctx, *scope.PractitionerID)
		if err != nil {
			return nil, 0, nil
		}
		return []*Practitioner{p}, 1, nil
	}
	return s.repo.List(ctx, scope.GroupID, true, limit, offset)
}

// ListDeleted returns soft-deleted practitioners of the caller's group.
func (s *Service) ListDeleted(ctx context.Context, scope account.Scope, limit, offset int) ([]*Practitioner, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	return s.repo.List(ctx, scope.GroupID, false, limit, offset)
}

// Deactivate soft-deletes the practitioner.
func (s *Service) Deactivate(ctx context.Context, scope account.Scope, id uuid.UUID) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, false)
}

// Restore brings a soft-deleted practitioner back.
func (s *Service) Restore(ctx context.Context, scope account.Scope, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !scope.Covers(p.GroupID) {
		return apperr.NewNotFound("practitioner", id.String())
	}
	return s.repo.SetActive(ctx, id, true)
}

func (s *Service) ListSpecialties(ctx context.Context) ([]*Specialty, error) {
	return s.specialties.List(ctx)
}

func (s *Service) CreateSpecialty(ctx context.Context, sp *Specialty) error {
	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Name == "" {
		return apperr.NewValidation("name", "name is required")
	}
	return s.specialties.Create(ctx, sp)
}

func (s *Service) validateSpecialties(ctx context.Context, specs []Specialty) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(specs))
	for _, sp := range specs {
		if _, err := s.specialties.GetByID(ctx, sp.ID); err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.NewValidation("specialties", "unknown specialty: "+sp.ID.String())
			}
			return nil, err
		}
		ids = append(ids, sp.ID)
	}
	return ids, nil
}
