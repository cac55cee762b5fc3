package report

import (
	"context"
	"time"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
)

// MaxRangeDays bounds the summary window so one request cannot scan years
// of rows.
const MaxRangeDays = 366

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summarize builds the activity summary for [from, to]. Practitioner
// callers get their own numbers only.
func (s *Service) Summarize(ctx context.Context, scope account.Scope, from, to time.Time) (*Summary, error) {
	if scope.IsZero() {
		return nil, apperr.NewNotFound("group", "")
	}
	if to.Before(from) {
		return nil, apperr.NewValidation("to", "end date must not precede start date")
	}
	if to.Sub(from) > MaxRangeDays*24*time.Hour {
		return nil, apperr.NewValidation("to", "date range is limited to %d days", MaxRangeDays)
	}

	perDay, err := s.repo.AppointmentsPerDay(ctx, scope.GroupID, scope.PractitionerID, from, to)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.AppointmentsByStatus(ctx, scope.GroupID, scope.PractitionerID, from, to)
	if err != nil {
		return nil, err
	}
	patients, err := s.repo.ActivePatients(ctx, scope.GroupID)
	if err != nil {
		return nil, err
	}
	practitioners, err := s.repo.ActivePractitioners(ctx, scope.GroupID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, dc := range perDay {
		total += dc.Count
	}
	return &Summary{
		From:              from,
		To:                to,
		TotalAppointments: total,
		ByStatus:          byStatus,
		PerDay:            perDay,
		Patients:          patients,
		Practitioners:     practitioners,
	}, nil
}
