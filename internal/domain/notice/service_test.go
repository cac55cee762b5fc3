package notice

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
	"github.com/clinicore/clinicore/internal/platform/push"
)

type mockRepo struct {
	notices map[uuid.UUID]*Notice
}

func newMockRepo() *mockRepo {
	return &mockRepo{notices: make(map[uuid.UUID]*Notice)}
}

func (m *mockRepo) Create(_ context.Context, n *Notice) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	cp := *n
	m.notices[n.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Notice, error) {
	n, ok := m.notices[id]
	if !ok {
		return nil, apperr.NewNotFound("notice", id.String())
	}
	cp := *n
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, n *Notice) error {
	if _, ok := m.notices[n.ID]; !ok {
		return apperr.NewNotFound("notice", n.ID.String())
	}
	cp := *n
	m.notices[n.ID] = &cp
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	n, ok := m.notices[id]
	if !ok {
		return apperr.NewNotFound("notice", id.String())
	}
	n.Active = active
	return nil
}

func (m *mockRepo) List(_ context.Context, groupID uuid.UUID, _, _ int) ([]*Notice, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	var out []*Notice
	for _, n := range m.notices {
		if n.GroupID == groupID && n.Active {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListForAccount(_ context.Context, groupID, accountID uuid.UUID, _, _ int) ([]*Notice, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	var out []*Notice
	for _, n := range m.notices {
		if n.GroupID != groupID || !n.Active {
			continue
		}
		if n.TargetAccountID == nil || *n.TargetAccountID == accountID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
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
	return &push.Result{NotificationID: "n-1", Recipients: 3}, nil
}

func TestCreateNotice_BroadcastStoresPushID(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier, zerolog.Nop())
	scope := account.Scope{AccountID: uuid.New(), GroupID: uuid.New()}

	n := &Notice{Title: "Mantenimiento", Message: "La clínica cierra el viernes."}
	warning, err := svc.Create(context.Background(), scope, n)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if warning != "" {
		t.Errorf("unexpected warning %q", warning)
	}
	if n.Priority != PriorityNormal {
		t.Errorf("priority should default to normal, got %s", n.Priority)
	}
	if repo.notices[n.ID].PushID != "n-1" {
		t.Error("push id should be stored after delivery")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != "" {
		t.Errorf("broadcast should send without a user tag, got %+v", notifier.sent)
	}
}

func TestCreateNotice_PushFailureIsWarning(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockNotifier{err: errors.New("provider down")}, zerolog.Nop())
	scope := account.Scope{AccountID: uuid.New(), GroupID: uuid.New()}

	n := &Notice{Title: "Aviso", Message: "texto", Priority: "URGENTE"}
	warning, err := svc.Create(context.Background(), scope, n)
	if err != nil {
		t.Fatalf("push failure must not fail the notice: %v", err)
	}
	if warning == "" {
		t.Error("expected a delivery warning")
	}
	if n.Priority != PriorityUrgent {
		t.Errorf("priority should normalize casing, got %s", n.Priority)
	}
	if _, ok := repo.notices[n.ID]; !ok {
		t.Error("notice should be persisted")
	}
}

func TestCreateNotice_Validation(t *testing.T) {
	svc := NewService(newMockRepo(), &mockNotifier{}, zerolog.Nop())
	scope := account.Scope{AccountID: uuid.New(), GroupID: uuid.New()}

	if _, err := svc.Create(context.Background(), scope, &Notice{Message: "x"}); !apperr.IsValidation(err) {
		t.Errorf("missing title should fail, got %v", err)
	}
	if _, err := svc.Create(context.Background(), scope, &Notice{Title: "t", Message: "x", Priority: "extrema"}); !apperr.IsValidation(err) {
		t.Errorf("unknown priority should fail, got %v", err)
	}
}

func TestInboxAndMarkRead(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockNotifier{}, zerolog.Nop())
	groupID := uuid.New()
	admin := account.Scope{AccountID: uuid.New(), GroupID: groupID}
	me := account.Scope{AccountID: uuid.New(), GroupID: groupID}
	other := account.Scope{AccountID: uuid.New(), GroupID: groupID}

	broadcast := &Notice{Title: "Para todos", Message: "m"}
	if _, err := svc.Create(context.Background(), admin, broadcast); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mine := &Notice{Title: "Para ti", Message: "m", TargetAccountID: &me.AccountID}
	if _, err := svc.Create(context.Background(), admin, mine); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, total, err := svc.Inbox(context.Background(), me, 50, 0)
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected broadcast plus targeted, got %d", total)
	}

	if _, _, err := svc.Inbox(context.Background(), other, 50, 0); err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if _, total, _ := svc.Inbox(context.Background(), other, 50, 0); total != 1 {
		t.Errorf("other account should only see the broadcast, got %d", total)
	}

	// The recipient can read and mark; anyone else gets not found.
	if _, err := svc.MarkRead(context.Background(), me, mine.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !repo.notices[mine.ID].Read {
		t.Error("notice should be marked read")
	}
	if _, err := svc.Get(context.Background(), other, mine.ID); !apperr.IsNotFound(err) {
		t.Errorf("targeted notice should hide from other accounts, got %v", err)
	}
}
