package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/schedule"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/push"
)

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, apperr.NewNotFound("appointment", id.String())
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return apperr.NewNotFound("appointment", a.ID.String())
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, groupID uuid.UUID, f Filter, _, _ int) ([]*Appointment, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	var out []*Appointment
	for _, a := range m.appts {
		if a.GroupID != groupID || a.Active != f.Active {
			continue
		}
		if f.PractitionerID != nil && a.PractitionerID != *f.PractitionerID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.Date != nil && !a.Date.Equal(f.Date.Time) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListForDate(_ context.Context, practitionerID uuid.UUID, date Date) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.PractitionerID == practitionerID && a.Date.Equal(date.Time) && a.Active {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockBlocks struct {
	blocks map[uuid.UUID]*schedule.ScheduleBlock
}

func (m *mockBlocks) GetByID(_ context.Context, id uuid.UUID) (*schedule.ScheduleBlock, error) {
	b, ok := m.blocks[id]
	if !ok {
		return nil, apperr.NewNotFound("schedule block", id.String())
	}
	cp := *b
	return &cp, nil
}

func (m *mockBlocks) Create(context.Context, *schedule.ScheduleBlock) error { return nil }
func (m *mockBlocks) Update(context.Context, *schedule.ScheduleBlock) error { return nil }
func (m *mockBlocks) SetActive(context.Context, uuid.UUID, bool) error      { return nil }
func (m *mockBlocks) List(context.Context, uuid.UUID, bool, int, int) ([]*schedule.ScheduleBlock, int, error) {
	return nil, 0, nil
}
func (m *mockBlocks) ListByPractitioner(context.Context, uuid.UUID, bool) ([]*schedule.ScheduleBlock, error) {
	return nil, nil
}
func (m *mockBlocks) ListByPractitionerWeekday(context.Context, uuid.UUID, schedule.Weekday) ([]*schedule.ScheduleBlock, error) {
	return nil, nil
}

type mockPatients struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NewNotFound("patient", id.String())
	}
	return p, nil
}

func (m *mockPatients) Create(context.Context, *patient.Patient) error     { return nil }
func (m *mockPatients) Update(context.Context, *patient.Patient) error     { return nil }
func (m *mockPatients) SetActive(context.Context, uuid.UUID, bool) error   { return nil }
func (m *mockPatients) List(context.Context, uuid.UUID, bool, int, int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

// mockBooker runs fn directly. before, when set, runs first so tests can
// slip a competing write in between the caller's validation pass and the
// transactional one.
type mockBooker struct {
	before func()
}

func (m *mockBooker) Book(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if m.before != nil {
		m.before()
	}
	return fn(ctx)
}

type mockNotifier struct {
	err  error
	sent []push.Message
}

func (m *mockNotifier) Send(_ context.Context, msg push.Message) (*push.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, msg)
	return &push.Result{Recipients: 1}, nil
}

type mockSink struct {
	err     error
	entries []audit.Entry
}

func (m *mockSink) Record(_ context.Context, e audit.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	booker   *mockBooker
	notifier *mockNotifier
	sink     *mockSink
	block    *schedule.ScheduleBlock
	pat      *patient.Patient
	scope    account.Scope
}

func newFixture() *fixture {
	groupID := uuid.New()
	block := testBlock(groupID)
	accountID := uuid.New()
	pat := &patient.Patient{ID: uuid.New(), GroupID: groupID, AccountID: &accountID, FirstName: "Ana", Active: true}

	repo := newMockRepo()
	booker := &mockBooker{}
	notifier := &mockNotifier{}
	sink := &mockSink{}
	svc := NewService(repo,
		&mockBlocks{blocks: map[uuid.UUID]*schedule.ScheduleBlock{block.ID: block}},
		&mockPatients{patients: map[uuid.UUID]*patient.Patient{pat.ID: pat}},
		booker, notifier, sink, zerolog.Nop())

	return &fixture{
		svc:      svc,
		repo:     repo,
		booker:   booker,
		notifier: notifier,
		sink:     sink,
		block:    block,
		pat:      pat,
		scope:    account.Scope{AccountID: uuid.New(), Email: "staff@clinic.test", GroupID: groupID},
	}
}

func (f *fixture) request(startMinutes int) CreateRequest {
	return CreateRequest{
		BlockID:      f.block.ID,
		PatientID:    f.pat.ID,
		Date:         mondayDate,
		StartMinutes: startMinutes,
	}
}

func TestCreate_BooksSlot(t *testing.T) {
	f := newFixture()
	a, warning, err := f.svc.Create(context.Background(), f.scope, f.request(9*60))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if warning != "" {
		t.Errorf("unexpected warning %q", warning)
	}
	if a.Status != StatusPending || a.EndMinutes != 9*60+30 {
		t.Errorf("derived fields wrong: %+v", a)
	}
	if len(f.sink.entries) != 1 || f.sink.entries[0].Action != "appointment.create" {
		t.Errorf("expected one audit entry, got %+v", f.sink.entries)
	}
	if len(f.notifier.sent) != 1 {
		t.Errorf("expected one push message, got %d", len(f.notifier.sent))
	}
}

func TestCreate_ConcurrentLoserGetsConflict(t *testing.T) {
	f := newFixture()

	// A competing booking lands after the first validation pass but
	// before the transactional one.
	f.booker.before = func() {
		rival := booked(f.block, 9*60)
		f.repo.appts[rival.ID] = rival
	}
	_, _, err := f.svc.Create(context.Background(), f.scope, f.request(9*60))
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	// Only the rival committed.
	if len(f.repo.appts) != 1 {
		t.Errorf("loser must not commit, have %d rows", len(f.repo.appts))
	}
}

func TestCreate_ValidationBeforeWrite(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.Create(context.Background(), f.scope, f.request(9*60+15))
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.repo.appts) != 0 {
		t.Error("rejected booking must not write")
	}
	if len(f.sink.entries) != 0 {
		t.Error("rejected booking must not audit")
	}
}

func TestCreate_TenantMismatch(t *testing.T) {
	f := newFixture()

	// A superadmin can see both groups, so the engine itself must reject
	// the cross-group pairing.
	f.pat.GroupID = uuid.New()
	super := account.Scope{AccountID: uuid.New(), GroupID: f.scope.GroupID, SuperAdmin: true}
	_, _, err := f.svc.Create(context.Background(), super, f.request(9*60))
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// A tenant-bound caller gets not found instead, hiding the other
	// group's existence.
	_, _, err = f.svc.Create(context.Background(), f.scope, f.request(9*60))
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreate_AdapterFailureIsWarningOnly(t *testing.T) {
	f := newFixture()
	f.sink.err = errors.New("audit store down")
	f.notifier.err = errors.New("push provider down")

	a, warning, err := f.svc.Create(context.Background(), f.scope, f.request(9*60))
	if err != nil {
		t.Fatalf("adapter failures must not fail the booking: %v", err)
	}
	if warning == "" {
		t.Error("expected a warning about the failed adapters")
	}
	if _, ok := f.repo.appts[a.ID]; !ok {
		t.Error("booking should be persisted")
	}
}

func TestSetStatus_LifecycleWithNotifications(t *testing.T) {
	f := newFixture()
	a, _, err := f.svc.Create(context.Background(), f.scope, f.request(9*60))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, _, err := f.svc.SetStatus(context.Background(), f.scope, a.ID, StatusConfirmed, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, _, err := f.svc.SetStatus(context.Background(), f.scope, a.ID, StatusCompleted, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, _, err := f.svc.SetStatus(context.Background(), f.scope, a.ID, StatusCancelled, "x"); !apperr.IsValidation(err) {
		t.Errorf("completed is terminal, got %v", err)
	}

	// create + confirm pushes; completion is silent.
	if len(f.notifier.sent) != 2 {
		t.Errorf("expected 2 push messages, got %d", len(f.notifier.sent))
	}
}

func TestCancel_RepeatIsNoOp(t *testing.T) {
	f := newFixture()
	a, _, err := f.svc.Create(context.Background(), f.scope, f.request(9*60))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := f.svc.Cancel(context.Background(), f.scope, a.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	audits := len(f.sink.entries)
	if _, _, err := f.svc.Cancel(context.Background(), f.scope, a.ID, "segunda vez"); err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	if len(f.sink.entries) != audits {
		t.Error("repeat cancel should not re-audit")
	}
	stored := f.repo.appts[a.ID]
	if stored.CancelReason != DefaultCancelReason {
		t.Errorf("repeat cancel must not overwrite the reason, got %q", stored.CancelReason)
	}
}

func TestRestore_RevalidatesSlot(t *testing.T) {
	f := newFixture()
	a, _, err := f.svc.Create(context.Background(), f.scope, f.request(9*60))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := f.svc.Cancel(context.Background(), f.scope, a.ID, "paciente enfermo"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Someone else takes the freed slot.
	rival := booked(f.block, 9*60)
	f.repo.appts[rival.ID] = rival

	if _, _, err := f.svc.Restore(context.Background(), f.scope, a.ID, StatusPending); !apperr.IsValidation(err) {
		t.Fatalf("restore into a taken slot should be rejected, got %v", err)
	}

	// With the slot free again it succeeds.
	delete(f.repo.appts, rival.ID)
	restored, _, err := f.svc.Restore(context.Background(), f.scope, a.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Status != StatusConfirmed || !restored.Active || restored.CancelReason != "" {
		t.Errorf("restore state wrong: %+v", restored)
	}
}

func TestDeactivate_ForcesSystemCancellation(t *testing.T) {
	f := newFixture()
	a, _, err := f.svc.Create(context.Background(), f.scope, f.request(9*60))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Deactivate(context.Background(), f.scope, a.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	stored := f.repo.appts[a.ID]
	if stored.Active || stored.Status != StatusCancelled || stored.CancelReason != SystemCancelReason {
		t.Errorf("deactivate state wrong: %+v", stored)
	}
}

func TestList_PractitionerSeesOnlyOwn(t *testing.T) {
	f := newFixture()
	if _, _, err := f.svc.Create(context.Background(), f.scope, f.request(9*60)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	other := booked(testBlock(f.scope.GroupID), 9*60)
	other.GroupID = f.scope.GroupID
	f.repo.appts[other.ID] = other

	practScope := account.Scope{GroupID: f.scope.GroupID, PractitionerID: &f.block.PractitionerID}
	items, total, err := f.svc.List(context.Background(), practScope, Filter{Active: true}, 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || items[0].PractitionerID != f.block.PractitionerID {
		t.Errorf("practitioner should see only own appointments, got %d", total)
	}

	if _, err := f.svc.Get(context.Background(), practScope, other.ID); !apperr.IsNotFound(err) {
		t.Errorf("another practitioner's appointment should be not found, got %v", err)
	}
}

func TestSlots_Availability(t *testing.T) {
	f := newFixture()
	if _, _, err := f.svc.Create(context.Background(), f.scope, f.request(9*60)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	slots, err := f.svc.Slots(context.Background(), f.scope, f.block.ID, mondayDate)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].Available || !slots[1].Available {
		t.Errorf("expected 09:00 taken and 09:30 free, got %+v", slots)
	}

	tuesday := NewDate(2026, time.August, 25)
	if _, err := f.svc.Slots(context.Background(), f.scope, f.block.ID, tuesday); !apperr.IsValidation(err) {
		t.Errorf("wrong weekday should be rejected, got %v", err)
	}
}
