package notice

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
	"github.com/clinicore/clinicore/internal/platform/push"
)

type Service struct {
	repo     Repository
	notifier push.Notifier
	log      zerolog.Logger
}

func NewService(repo Repository, notifier push.Notifier, log zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

// Create stores the notice then attempts push delivery. Delivery failure is
// returned as a warning; the notice stands either way.
func (s *Service) Create(ctx context.Context, scope account.Scope, n *Notice) (string, error) {
	if scope.IsZero() {
		return "", apperr.NewNotFound("group", "")
	}
	if scope.SuperAdmin {
		if n.GroupID == uuid.Nil {
			return "", apperr.NewValidation("group_id", "group_id is required")
		}
	} else {
		n.GroupID = scope.GroupID
	}
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return "", apperr.NewValidation("title", "title is required")
	}
	if strings.TrimSpace(n.Message) == "" {
		return "", apperr.NewValidation("message", "message is required")
	}
	p, err := ParsePriority(string(n.Priority))
	if err != nil {
		return "", err
	}
	n.Priority = p
	n.Read = false
	n.Active = true
	if err := s.repo.Create(ctx, n); err != nil {
		return "", err
	}

	msg := push.Message{Title: n.Title, Body: n.Message}
	if n.TargetAccountID != nil {
		msg.UserID = n.TargetAccountID.String()
	}
	res, err := s.notifier.Send(ctx, msg)
	if err != nil {
		s.log.Error().Err(err).Str("notice_id", n.ID.String()).Msg("notice push failed")
		return apperr.NewAdapter("notify", err).Error(), nil
	}
	if res != nil && res.NotificationID != "" {
		n.PushID = res.NotificationID
		if err := s.repo.Update(ctx, n); err != nil {
			s.log.Error().Err(err).Str("notice_id", n.ID.String()).Msg("storing push id failed")
		}
	}
	return "", nil
}

func (s *Service) Get(ctx context.Context, scope account.Scope, id uuid.UUID) (*Notice, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(n.GroupID) {
		return nil, apperr.NewNotFound("notice", id.String())
	}
	if n.TargetAccountID != nil && !scope.SuperAdmin && *n.TargetAccountID != scope.AccountID {
		return nil, apperr.NewNotFound("notice", id.String())
	}
	return n, nil
}

// List returns every active notice in the group, for staff dashboards.
func (s *Service) List(ctx context.Context, scope account.Scope, limit, offset int) ([]*Notice, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	return s.repo.List(ctx, scope.GroupID, limit, offset)
}

// Inbox returns the caller's own notices: targeted plus broadcasts.
func (s *Service) Inbox(ctx context.Context, scope account.Scope, limit, offset int) ([]*Notice, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	return s.repo.ListForAccount(ctx, scope.GroupID, scope.AccountID, limit, offset)
}

// MarkRead flags a targeted notice as read by its recipient.
func (s *Service) MarkRead(ctx context.Context, scope account.Scope, id uuid.UUID) (*Notice, error) {
	n, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	n.Read = true
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Deactivate(ctx context.Context, scope account.Scope, id uuid.UUID) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, false)
}
