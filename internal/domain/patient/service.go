package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, scope account.Scope, p *Patient) error {
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
	p.Active = true
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, scope account.Scope, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(p.GroupID) {
		return nil, apperr.NewNotFound("patient", id.String())
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, scope account.Scope, p *Patient) error {
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
	return s.repo.Update(ctx, p)
}

func (s *Service) List(ctx context.Context, scope account.Scope, limit, offset int) ([]*Patient, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	return s.repo.List(ctx, scope.GroupID, true, limit, offset)
}

func (s *Service) ListDeleted(ctx context.Context, scope account.Scope, limit, offset int) ([]*Patient, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	return s.repo.List(ctx, scope.GroupID, false, limit, offset)
}

func (s *Service) Deactivate(ctx context.Context, scope account.Scope, id uuid.UUID) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Restore(ctx context.Context, scope account.Scope, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !scope.Covers(p.GroupID) {
		return apperr.NewNotFound("patient", id.String())
	}
	return s.repo.SetActive(ctx, id, true)
}
