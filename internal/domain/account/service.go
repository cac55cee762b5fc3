package account

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_]{2,40}$`)

type Service struct {
	groups   GroupRepository
	accounts AccountRepository
}

func NewService(groups GroupRepository, accounts AccountRepository) *Service {
	return &Service{groups: groups, accounts: accounts}
}

// Resolve maps an authenticated caller's email to a tenant scope. It fails
// closed: any identity that does not map to an active account in an active
// group yields the zero Scope, which matches no rows. Resolution problems
// are deliberately not distinguishable to the caller.
func (s *Service) Resolve(ctx context.Context, email string) (Scope, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return Scope{}, nil
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Scope{}, nil
		}
		return Scope{}, err
	}
	if !acct.Active {
		return Scope{}, nil
	}

	if acct.Role == RoleSuperAdmin {
		return Scope{AccountID: acct.ID, Email: acct.Email, GroupID: acct.GroupID, SuperAdmin: true}, nil
	}

	grp, err := s.groups.GetByID(ctx, acct.GroupID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Scope{}, nil
		}
		return Scope{}, err
	}
	if !grp.Active {
		return Scope{}, nil
	}

	scope := Scope{AccountID: acct.ID, Email: acct.Email, GroupID: acct.GroupID}
	if acct.Role == RolePractitioner {
		scope.PractitionerID = acct.PractitionerID
	}
	return scope, nil
}

func (s *Service) CreateGroup(ctx context.Context, g *Group) error {
	g.Slug = strings.TrimSpace(strings.ToLower(g.Slug))
	if g.Slug == "" {
		return apperr.NewValidation("slug", "slug is required")
	}
	if !slugPattern.MatchString(g.Slug) {
		return apperr.NewValidation("slug", "slug must be 2-40 lowercase letters, digits or underscores")
	}
	if g.Name == "" {
		return apperr.NewValidation("name", "name is required")
	}
	if existing, err := s.groups.GetBySlug(ctx, g.Slug); err == nil && existing != nil {
		return apperr.NewValidation("slug", "slug is already in use")
	} else if err != nil && !apperr.IsNotFound(err) {
		return err
	}
	g.Active = true
	return s.groups.Create(ctx, g)
}

func (s *Service) GetGroup(ctx context.Context, id uuid.UUID) (*Group, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *Service) ListGroups(ctx context.Context, limit, offset int) ([]*Group, int, error) {
	return s.groups.List(ctx, limit, offset)
}

func (s *Service) UpdateGroup(ctx context.Context, g *Group) error {
	if g.Name == "" {
		return apperr.NewValidation("name", "name is required")
	}
	if _, err := s.groups.GetByID(ctx, g.ID); err != nil {
		return err
	}
	return s.groups.Update(ctx, g)
}

func (s *Service) CreateAccount(ctx context.Context, a *Account) error {
	a.Email = strings.TrimSpace(strings.ToLower(a.Email))
	if a.Email == "" || !strings.Contains(a.Email, "@") {
		return apperr.NewValidation("email", "a valid email is required")
	}
	if a.GroupID == uuid.Nil {
		return apperr.NewValidation("group_id", "group_id is required")
	}
	if !IsValidRole(string(a.Role)) {
		return apperr.NewValidation("role", "invalid role: "+string(a.Role))
	}
	if a.Role == RolePractitioner && a.PractitionerID == nil {
		return apperr.NewValidation("practitioner_id", "practitioner accounts must reference a practitioner")
	}
	if _, err := s.groups.GetByID(ctx, a.GroupID); err != nil {
		return err
	}
	if existing, err := s.accounts.GetByEmail(ctx, a.Email); err == nil && existing != nil {
		return apperr.NewValidation("email", "email is already registered")
	} else if err != nil && !apperr.IsNotFound(err) {
		return err
	}
	a.Active = true
	return s.accounts.Create(ctx, a)
}

func (s *Service) GetAccount(ctx context.Context, scope Scope, id uuid.UUID) (*Account, error) {
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(acct.GroupID) {
		return nil, apperr.NewNotFound("account", id.String())
	}
	return acct, nil
}

func (s *Service) ListAccounts(ctx context.Context, scope Scope, limit, offset int) ([]*Account, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	return s.accounts.ListByGroup(ctx, scope.GroupID, limit, offset)
}

func (s *Service) UpdateAccount(ctx context.Context, scope Scope, a *Account) error {
	existing, err := s.accounts.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if !scope.Covers(existing.GroupID) {
		return apperr.NewNotFound("account", a.ID.String())
	}
	if !IsValidRole(string(a.Role)) {
		return apperr.NewValidation("role", "invalid role: "+string(a.Role))
	}
	return s.accounts.Update(ctx, a)
}
