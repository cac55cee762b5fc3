package appointment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/schedule"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/push"
)

type Service struct {
	repo     Repository
	blocks   schedule.Repository
	patients patient.Repository
	booker   Booker
	notifier push.Notifier
	sink     audit.Sink
	log      zerolog.Logger
}

func NewService(repo Repository, blocks schedule.Repository, patients patient.Repository,
	booker Booker, notifier push.Notifier, sink audit.Sink, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		blocks:   blocks,
		patients: patients,
		booker:   booker,
		notifier: notifier,
		sink:     sink,
		log:      log,
	}
}

// CreateRequest is a booking candidate. Everything else on the appointment
// is derived from the block during validation.
type CreateRequest struct {
	BlockID      uuid.UUID `json:"block_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	Date         Date      `json:"date"`
	StartMinutes int       `json:"start_minutes"`
}

// Create books a slot. Validation runs twice: once up front so callers get
// precise errors cheaply, and again inside the booking transaction against
// fresh rows. A second-pass failure means a competing booking won the slot
// between the two passes and is reported as a retryable conflict. The
// returned warning is non-empty when a post-commit adapter failed; the
// booking itself stands regardless.
func (s *Service) Create(ctx context.Context, scope account.Scope, req CreateRequest) (*Appointment, string, error) {
	if scope.IsZero() {
		return nil, "", apperr.NewNotFound("schedule block", req.BlockID.String())
	}
	block, err := s.visibleBlock(ctx, scope, req.BlockID)
	if err != nil {
		return nil, "", err
	}
	pat, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, "", err
	}
	if !scope.Covers(pat.GroupID) || !pat.Active {
		return nil, "", apperr.NewNotFound("patient", req.PatientID.String())
	}

	existing, err := s.repo.ListForDate(ctx, block.PractitionerID, req.Date)
	if err != nil {
		return nil, "", err
	}
	if err := ValidateSlot(block, pat.GroupID, req.Date, req.StartMinutes, existing); err != nil {
		return nil, "", err
	}

	a := &Appointment{PatientID: req.PatientID}
	a.applySlot(block, req.Date, req.StartMinutes)

	err = s.booker.Book(ctx, BookingKey(block.PractitionerID, req.Date), func(txCtx context.Context) error {
		fresh, err := s.repo.ListForDate(txCtx, block.PractitionerID, req.Date)
		if err != nil {
			return err
		}
		if err := ValidateSlot(block, pat.GroupID, req.Date, req.StartMinutes, fresh); err != nil {
			if apperr.IsValidation(err) {
				return apperr.NewConflict("a concurrent booking took the slot: %s", err.Error())
			}
			return err
		}
		return s.repo.Create(txCtx, a)
	})
	if err != nil {
		return nil, "", err
	}

	warning := s.afterCommit(ctx, scope, a, "appointment.create",
		fmt.Sprintf("booked %s %s for patient %s", a.Date, schedule.Clock(a.StartMinutes), a.PatientID),
		push.Message{
			Title:   "Cita agendada",
			Body:    fmt.Sprintf("Tu cita del %s a las %s quedó registrada.", a.Date, schedule.Clock(a.StartMinutes)),
			TitleEN: "Appointment booked",
			BodyEN:  fmt.Sprintf("Your appointment on %s at %s is registered.", a.Date, schedule.Clock(a.StartMinutes)),
		}, pat.AccountID)
	return a, warning, nil
}

// Reschedule moves an existing appointment to a new block, date or start
// time, revalidating exactly like a fresh booking.
func (s *Service) Reschedule(ctx context.Context, scope account.Scope, id uuid.UUID, req CreateRequest) (*Appointment, string, error) {
	a, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, "", err
	}
	if a.Status == StatusCompleted || a.Status == StatusCancelled {
		return nil, "", apperr.NewValidation("status", "%s appointments cannot be rescheduled", a.Status)
	}
	if req.BlockID == uuid.Nil {
		req.BlockID = a.BlockID
	}
	block, err := s.visibleBlock(ctx, scope, req.BlockID)
	if err != nil {
		return nil, "", err
	}
	pat, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		return nil, "", err
	}

	err = s.booker.Book(ctx, BookingKey(block.PractitionerID, req.Date), func(txCtx context.Context) error {
		fresh, err := s.repo.ListForDate(txCtx, block.PractitionerID, req.Date)
		if err != nil {
			return err
		}
		fresh = excludeSelf(fresh, a.ID)
		if err := ValidateSlot(block, pat.GroupID, req.Date, req.StartMinutes, fresh); err != nil {
			return err
		}
		status := a.Status
		a.applySlot(block, req.Date, req.StartMinutes)
		a.Status = status
		return s.repo.Update(txCtx, a)
	})
	if err != nil {
		return nil, "", err
	}

	warning := s.afterCommit(ctx, scope, a, "appointment.reschedule",
		fmt.Sprintf("moved to %s %s", a.Date, schedule.Clock(a.StartMinutes)),
		push.Message{
			Title:   "Cita reprogramada",
			Body:    fmt.Sprintf("Tu cita fue movida al %s a las %s.", a.Date, schedule.Clock(a.StartMinutes)),
			TitleEN: "Appointment rescheduled",
			BodyEN:  fmt.Sprintf("Your appointment moved to %s at %s.", a.Date, schedule.Clock(a.StartMinutes)),
		}, pat.AccountID)
	return a, warning, nil
}

func (s *Service) Get(ctx context.Context, scope account.Scope, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(a.GroupID) {
		return nil, apperr.NewNotFound("appointment", id.String())
	}
	if scope.PractitionerID != nil && *scope.PractitionerID != a.PractitionerID {
		return nil, apperr.NewNotFound("appointment", id.String())
	}
	return a, nil
}

// List returns tenant appointments. Practitioner callers see only their
// own regardless of the filter they pass.
func (s *Service) List(ctx context.Context, scope account.Scope, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if scope.IsZero() {
		return nil, 0, nil
	}
	if scope.PractitionerID != nil {
		f.PractitionerID = scope.PractitionerID
	}
	return s.repo.List(ctx, scope.GroupID, f, limit, offset)
}

// SetStatus applies one workflow transition. reason is only consulted when
// moving to CANCELLED.
func (s *Service) SetStatus(ctx context.Context, scope account.Scope, id uuid.UUID, to Status, reason string) (*Appointment, string, error) {
	a, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, "", err
	}
	before := a.Status
	if err := a.Transition(to, reason); err != nil {
		return nil, "", err
	}
	if a.Status == before {
		// Cancelling an already cancelled appointment is a no-op.
		return a, "", nil
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, "", err
	}
	warning := s.statusWarning(ctx, scope, a, before)
	return a, warning, nil
}

// Cancel is SetStatus to CANCELLED with a defaulted reason.
func (s *Service) Cancel(ctx context.Context, scope account.Scope, id uuid.UUID, reason string) (*Appointment, string, error) {
	return s.SetStatus(ctx, scope, id, StatusCancelled, reason)
}

// Restore brings a cancelled or soft-deleted appointment back into an
// active state. The slot is revalidated under the booking lock because it
// may have been given away since.
func (s *Service) Restore(ctx context.Context, scope account.Scope, id uuid.UUID, to Status) (*Appointment, string, error) {
	if to == "" {
		to = StatusPending
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !scope.Covers(a.GroupID) {
		return nil, "", apperr.NewNotFound("appointment", id.String())
	}
	if scope.PractitionerID != nil && *scope.PractitionerID != a.PractitionerID {
		return nil, "", apperr.NewNotFound("appointment", id.String())
	}
	block, err := s.blocks.GetByID(ctx, a.BlockID)
	if err != nil {
		return nil, "", err
	}

	err = s.booker.Book(ctx, BookingKey(a.PractitionerID, a.Date), func(txCtx context.Context) error {
		fresh, err := s.repo.ListForDate(txCtx, a.PractitionerID, a.Date)
		if err != nil {
			return err
		}
		fresh = excludeSelf(fresh, a.ID)
		if err := ValidateSlot(block, a.GroupID, a.Date, a.StartMinutes, fresh); err != nil {
			return err
		}
		if err := a.Reactivate(to); err != nil {
			return err
		}
		return s.repo.Update(txCtx, a)
	})
	if err != nil {
		return nil, "", err
	}

	warning := s.afterCommit(ctx, scope, a, "appointment.restore",
		fmt.Sprintf("restored to %s", a.Status), push.Message{}, nil)
	return a, warning, nil
}

// Deactivate soft-deletes an appointment, forcing CANCELLED unless the
// workflow already ended.
func (s *Service) Deactivate(ctx context.Context, scope account.Scope, id uuid.UUID) (string, error) {
	a, err := s.Get(ctx, scope, id)
	if err != nil {
		return "", err
	}
	a.Deactivate()
	if err := s.repo.Update(ctx, a); err != nil {
		return "", err
	}
	return s.afterCommit(ctx, scope, a, "appointment.deactivate", "soft deleted", push.Message{}, nil), nil
}

// Rate records the patient's rating for a completed visit.
func (s *Service) Rate(ctx context.Context, scope account.Scope, id uuid.UUID, rating int, comment string) (*Appointment, error) {
	a, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := a.Rate(rating, comment); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Slots expands a block's grid for one date, marking which starts remain
// bookable. Collisions are checked against all of the practitioner's
// appointments that day, capacity against the block's own.
func (s *Service) Slots(ctx context.Context, scope account.Scope, blockID uuid.UUID, date Date) ([]schedule.Slot, error) {
	if scope.IsZero() {
		return nil, apperr.NewNotFound("schedule block", blockID.String())
	}
	block, err := s.visibleBlock(ctx, scope, blockID)
	if err != nil {
		return nil, err
	}
	if computed := schedule.WeekdayOf(date.Time); computed != block.Weekday {
		return nil, apperr.NewValidation("date", "%s falls on %s but the block is scheduled for %s",
			date, computed, block.Weekday)
	}
	existing, err := s.repo.ListForDate(ctx, block.PractitionerID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]bool)
	booked := 0
	for _, a := range existing {
		if !a.CountsAgainstSlot() {
			continue
		}
		taken[a.StartMinutes] = true
		if a.BlockID == block.ID {
			booked++
		}
	}
	return block.Slots(taken, booked), nil
}

func (s *Service) visibleBlock(ctx context.Context, scope account.Scope, id uuid.UUID) (*schedule.ScheduleBlock, error) {
	block, err := s.blocks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !block.Active || !scope.Covers(block.GroupID) {
		return nil, apperr.NewNotFound("schedule block", id.String())
	}
	if scope.PractitionerID != nil && *scope.PractitionerID != block.PractitionerID {
		return nil, apperr.NewNotFound("schedule block", id.String())
	}
	return block, nil
}

func excludeSelf(items []*Appointment, id uuid.UUID) []*Appointment {
	out := items[:0]
	for _, a := range items {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func (s *Service) statusWarning(ctx context.Context, scope account.Scope, a *Appointment, before Status) string {
	msg := push.Message{}
	var accountID *uuid.UUID
	if pat, err := s.patients.GetByID(ctx, a.PatientID); err == nil {
		accountID = pat.AccountID
	}
	switch a.Status {
	case StatusConfirmed:
		msg = push.Message{
			Title:   "Cita confirmada",
			Body:    fmt.Sprintf("Tu cita del %s a las %s fue confirmada.", a.Date, schedule.Clock(a.StartMinutes)),
			TitleEN: "Appointment confirmed",
			BodyEN:  fmt.Sprintf("Your appointment on %s at %s was confirmed.", a.Date, schedule.Clock(a.StartMinutes)),
		}
	case StatusCancelled:
		msg = push.Message{
			Title:   "Cita cancelada",
			Body:    fmt.Sprintf("Tu cita del %s fue cancelada: %s", a.Date, a.CancelReason),
			TitleEN: "Appointment cancelled",
			BodyEN:  fmt.Sprintf("Your appointment on %s was cancelled: %s", a.Date, a.CancelReason),
		}
	}
	return s.afterCommit(ctx, scope, a, "appointment.status",
		fmt.Sprintf("%s to %s", before, a.Status), msg, accountID)
}

// afterCommit runs the audit and notification adapters once the primary
// write is durable. Failures never unwind the write; they come back as a
// warning string for the response and go to the operational log.
func (s *Service) afterCommit(ctx context.Context, scope account.Scope, a *Appointment, action, detail string, msg push.Message, accountID *uuid.UUID) string {
	var warnings []string

	entry := audit.Entry{
		GroupID:    a.GroupID.String(),
		ActorID:    scope.AccountID.String(),
		ActorEmail: scope.Email,
		Action:     action,
		Resource:   "appointment",
		ResourceID: a.ID.String(),
		Detail:     detail,
	}
	if err := s.sink.Record(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("action", action).Str("appointment_id", a.ID.String()).
			Msg("audit write failed")
		warnings = append(warnings, apperr.NewAdapter("audit", err).Error())
	}

	if msg.Title != "" && accountID != nil {
		msg.UserID = accountID.String()
		if _, err := s.notifier.Send(ctx, msg); err != nil {
			s.log.Error().Err(err).Str("appointment_id", a.ID.String()).
				Msg("push notification failed")
			warnings = append(warnings, apperr.NewAdapter("notify", err).Error())
		}
	}
	return strings.Join(warnings, "; ")
}
