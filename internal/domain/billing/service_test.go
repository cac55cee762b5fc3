package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
	"github.com/clinicore/clinicore/internal/platform/payments"
)

type mockPlans struct {
	plans map[uuid.UUID]*Plan
}

func (m *mockPlans) GetByID(_ context.Context, id uuid.UUID) (*Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, apperr.NewNotFound("plan", id.String())
	}
	return p, nil
}

func (m *mockPlans) List(context.Context) ([]*Plan, error) {
	var out []*Plan
	for _, p := range m.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockSubs struct {
	subs map[uuid.UUID]*Subscription
}

func (m *mockSubs) Upsert(_ context.Context, s *Subscription) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	m.subs[s.GroupID] = &cp
	return nil
}

func (m *mockSubs) GetByGroup(_ context.Context, groupID uuid.UUID) (*Subscription, error) {
	s, ok := m.subs[groupID]
	if !ok {
		return nil, apperr.NewNotFound("subscription", groupID.String())
	}
	return s, nil
}

type mockProvider struct {
	err  error
	keys []string
}

func (m *mockProvider) CreateIntent(_ context.Context, amountCents int64, currency, idempotencyKey string) (*payments.Intent, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.keys = append(m.keys, idempotencyKey)
	return &payments.Intent{ID: "pi_1", ClientSecret: "secret", AmountCents: amountCents, Currency: currency}, nil
}

func newBillingFixture() (*Service, *mockSubs, *mockProvider, *Plan) {
	plan := &Plan{ID: uuid.New(), Code: "pro", Name: "Pro", PriceCents: 4900, Currency: "usd", Active: true}
	subs := &mockSubs{subs: make(map[uuid.UUID]*Subscription)}
	provider := &mockProvider{}
	svc := NewService(&mockPlans{plans: map[uuid.UUID]*Plan{plan.ID: plan}}, subs, provider, "usd")
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return svc, subs, provider, plan
}

func TestSubscribe(t *testing.T) {
	svc, subs, provider, plan := newBillingFixture()
	scope := account.Scope{AccountID: uuid.New(), GroupID: uuid.New()}

	sub, intent, err := svc.Subscribe(context.Background(), scope, plan.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.Status != SubscriptionActive || sub.PlanID != plan.ID {
		t.Errorf("subscription wrong: %+v", sub)
	}
	if intent == nil || intent.AmountCents != plan.PriceCents {
		t.Errorf("intent wrong: %+v", intent)
	}
	if _, ok := subs.subs[scope.GroupID]; !ok {
		t.Error("subscription not stored")
	}
	if len(provider.keys) != 1 || provider.keys[0] == "" {
		t.Errorf("subscribe should pass an idempotency key, got %v", provider.keys)
	}
}

func TestSubscribe_ProviderFailure(t *testing.T) {
	svc, subs, provider, plan := newBillingFixture()
	provider.err = errors.New("stripe down")
	scope := account.Scope{GroupID: uuid.New()}

	if _, _, err := svc.Subscribe(context.Background(), scope, plan.ID); err == nil {
		t.Fatal("expected provider error")
	}
	if len(subs.subs) != 0 {
		t.Error("failed payment must not record a subscription")
	}
}

func TestCreateIntent(t *testing.T) {
	svc, _, _, _ := newBillingFixture()
	scope := account.Scope{GroupID: uuid.New()}

	intent, err := svc.CreateIntent(context.Background(), scope, 2500, "")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.Currency != "usd" {
		t.Errorf("currency should default, got %s", intent.Currency)
	}

	if _, err := svc.CreateIntent(context.Background(), scope, 0, "usd"); !apperr.IsValidation(err) {
		t.Errorf("zero amount should fail validation, got %v", err)
	}
	if _, err := svc.CreateIntent(context.Background(), account.Scope{}, 2500, "usd"); !apperr.IsNotFound(err) {
		t.Errorf("zero scope should fail closed, got %v", err)
	}
}
