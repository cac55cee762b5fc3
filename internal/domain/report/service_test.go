package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
)

type mockRepo struct {
	perDay       []DayCount
	byStatus     map[string]int
	lastPractFil *uuid.UUID
}

func (m *mockRepo) AppointmentsPerDay(_ context.Context, _ uuid.UUID, practitionerID *uuid.UUID, _, _ time.Time) ([]DayCount, error) {
	m.lastPractFil = practitionerID
	return m.perDay, nil
}

func (m *mockRepo) AppointmentsByStatus(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _, _ time.Time) (map[string]int, error) {
	return m.byStatus, nil
}

func (m *mockRepo) ActivePatients(context.Context, uuid.UUID) (int, error)      { return 12, nil }
func (m *mockRepo) ActivePractitioners(context.Context, uuid.UUID) (int, error) { return 3, nil }

func TestSummarize(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{
		perDay: []DayCount{
			{Date: day, Count: 4},
			{Date: day.AddDate(0, 0, 1), Count: 2},
		},
		byStatus: map[string]int{"CONFIRMED": 5, "PENDING": 1},
	}
	svc := NewService(repo)
	scope := account.Scope{GroupID: uuid.New()}

	sum, err := svc.Summarize(context.Background(), scope, day, day.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.TotalAppointments != 6 {
		t.Errorf("total = %d, want 6", sum.TotalAppointments)
	}
	if sum.Patients != 12 || sum.Practitioners != 3 {
		t.Errorf("counts wrong: %+v", sum)
	}
	if repo.lastPractFil != nil {
		t.Error("staff scope should not filter by practitioner")
	}
}

func TestSummarize_PractitionerFilter(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	practID := uuid.New()
	scope := account.Scope{GroupID: uuid.New(), PractitionerID: &practID}
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Summarize(context.Background(), scope, day, day); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if repo.lastPractFil == nil || *repo.lastPractFil != practID {
		t.Error("practitioner scope should narrow the query")
	}
}

func TestSummarize_RangeValidation(t *testing.T) {
	svc := NewService(&mockRepo{})
	scope := account.Scope{GroupID: uuid.New()}
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Summarize(context.Background(), scope, day, day.AddDate(0, 0, -1)); !apperr.IsValidation(err) {
		t.Errorf("inverted range should fail, got %v", err)
	}
	if _, err := svc.Summarize(context.Background(), scope, day, day.AddDate(2, 0, 0)); !apperr.IsValidation(err) {
		t.Errorf("oversized range should fail, got %v", err)
	}
	if _, err := svc.Summarize(context.Background(), account.Scope{}, day, day); !apperr.IsNotFound(err) {
		t.Errorf("zero scope should fail closed, got %v", err)
	}
}
