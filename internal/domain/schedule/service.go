package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
)

type Service struct {
	repo         Repository
	lockLeadDays int
	now          func() time.Time
}

func NewService(repo Repository, lockLeadDays int) *Service {
	return &Service{repo: repo, lockLeadDays: lockLeadDays, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, scope account.Scope, b *ScheduleBlock) error {
	if scope.IsZero() {
		return apperr.NewNotFound("group", "")
	}
	if scope.SuperAdmin {
		if b.GroupID == uuid.Nil {
			return apperr.NewValidation("group_id", "group_id is required")
		}
	} else {
		b.GroupID = scope.GroupID
	}
	if scope.PractitionerID != nil {
		b.PractitionerID = *scope.PractitionerID
	}
	if b.PractitionerID == uuid.Nil {
		return apperr.NewValidation("practitioner_id", "practitioner_id is required")
	}
	if err := s.validate(ctx, b, uuid.Nil); err != nil {
		return err
	}
	b.Active = true
	if err := s.repo.Create(ctx, b); err != nil {
		return err
	}
	s.decorate(b)
	return nil
}

func (s *Service) Get(ctx context.Context, scope account.Scope, id uuid.UUID) (*ScheduleBlock, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(b.GroupID) {
		return nil, apperr.NewNotFound("schedule block", id.String())
	}
	if scope.PractitionerID != nil && *scope.PractitionerID != b.PractitionerID {
		return nil, apperr.NewNotFound("schedule block", id.String())
	}
	s.decorate(b)
	return b, nil
}

func (s *Service) Update(ctx context.Context, scope account.Scope, b *ScheduleBlock) error {
	existing, err := s.Get(ctx, scope, b.ID)
	if err != nil {
		return err
	}
	if !existing.CanModify {
		return apperr.NewValidation("weekday", existing.LockReason)
	}
	b.GroupID = existing.GroupID
	b.PractitionerID = existing.PractitionerID
	if err := s.validate(ctx, b, b.ID); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return err
	}
	b.Active = existing.Active
	s.decorate(b)
	return nil
}

func (s *Service) List(ctx context.Context, scope account.Scope, limit, offset int) ([]*ScheduleBlock, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	if scope.PractitionerID != nil {
		items, err := s.repo.ListByPractitioner(ctx, *scope.PractitionerID, true)
		if err != nil {
			return nil, 0, err
		}
		for _, b := range items {
			s.decorate(b)
		}
		return items, len(items), nil
	}
	items, total, err := s.repo.List(ctx, scope.GroupID, true, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, b := range items {
		s.decorate(b)
	}
	return items, total, nil
}

// ListByPractitioner returns a practitioner's active blocks inside the
// caller's scope.
func (s *Service) ListByPractitioner(ctx context.Context, scope account.Scope, practitionerID uuid.UUID) ([]*ScheduleBlock, error) {
	if scope.IsZero() {
		return nil, nil
	}
	if scope.PractitionerID != nil && *scope.PractitionerID != practitionerID {
		return nil, apperr.NewNotFound("practitioner", practitionerID.String())
	}
	items, err := s.repo.ListByPractitioner(ctx, practitionerID, true)
	if err != nil {
		return nil, err
	}
	scoped := items[:0]
	for _, b := range items {
		if scope.Covers(b.GroupID) {
			s.decorate(b)
			scoped = append(scoped, b)
		}
	}
	return scoped, nil
}

// Deactivate soft-deletes a block. Locked blocks cannot be removed.
func (s *Service) Deactivate(ctx context.Context, scope account.Scope, id uuid.UUID) error {
	b, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if !b.CanModify {
		return apperr.NewValidation("weekday", b.LockReason)
	}
	return s.repo.SetActive(ctx, id, false)
}

// Restore reactivates a soft-deleted block, re-running the overlap check
// against the blocks that became active in the meantime.
func (s *Service) Restore(ctx context.Context, scope account.Scope, id uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !scope.Covers(b.GroupID) {
		return apperr.NewNotFound("schedule block", id.String())
	}
	if err := s.validate(ctx, b, b.ID); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, true)
}

// validate applies the block invariants. excludeID is the block's own id on
// update so the overlap check skips it.
func (s *Service) validate(ctx context.Context, b *ScheduleBlock, excludeID uuid.UUID) error {
	if !b.Weekday.IsValid() {
		w, err := ParseWeekday(string(b.Weekday))
		if err != nil {
			return err
		}
		b.Weekday = w
	}
	if b.EndMinutes <= b.StartMinutes {
		return apperr.NewValidation("end_minutes",
			fmt.Sprintf("end time %s must be after start time %s", Clock(b.EndMinutes), Clock(b.StartMinutes)))
	}
	if b.StartMinutes < 0 || b.EndMinutes > 24*60 {
		return apperr.NewValidation("start_minutes", "block must fall within a single day")
	}
	if b.DurationMinutes() < MinBlockMinutes {
		return apperr.NewValidation("end_minutes",
			fmt.Sprintf("block must span at least %d minutes, got %d", MinBlockMinutes, b.DurationMinutes()))
	}
	if b.SlotMinutes <= 0 {
		return apperr.NewValidation("slot_minutes", "slot duration must be positive")
	}
	if b.MaxAppointments < 0 {
		return apperr.NewValidation("max_appointments", "max_appointments cannot be negative")
	}
	if ceiling := b.CapacityCeiling(); b.MaxAppointments > ceiling {
		return apperr.NewValidation("max_appointments",
			fmt.Sprintf("max_appointments %d exceeds the %d slots the block can hold", b.MaxAppointments, ceiling))
	}

	others, err := s.repo.ListByPractitionerWeekday(ctx, b.PractitionerID, b.Weekday)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == excludeID {
			continue
		}
		if b.Overlaps(other) {
			return apperr.NewValidation("start_minutes",
				fmt.Sprintf("block overlaps an existing %s block %s-%s",
					other.Weekday, Clock(other.StartMinutes), Clock(other.EndMinutes)))
		}
	}
	return nil
}

// decorate fills the derived lock-window fields. A block is locked when its
// weekday index is behind the weekday index of today plus the lead window,
// meaning that day of the current week can no longer be rescheduled.
func (s *Service) decorate(b *ScheduleBlock) {
	cutoff := WeekdayOf(s.now().AddDate(0, 0, s.lockLeadDays))
	if b.Weekday.Index() < cutoff.Index() {
		b.CanModify = false
		b.LockReason = fmt.Sprintf(
			"%s blocks are locked: changes require %d days of lead time (cutoff %s)",
			b.Weekday, s.lockLeadDays, cutoff)
		return
	}
	b.CanModify = true
	b.LockReason = ""
}
