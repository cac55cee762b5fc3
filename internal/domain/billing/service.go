package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
	"github.com/clinicore/clinicore/internal/platform/payments"
)

type Service struct {
	plans           PlanRepository
	subs            SubscriptionRepository
	provider        payments.Provider
	defaultCurrency string
	now             func() time.Time
}

func NewService(plans PlanRepository, subs SubscriptionRepository, provider payments.Provider, defaultCurrency string) *Service {
	return &Service{
		plans:           plans,
		subs:            subs,
		provider:        provider,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

func (s *Service) ListPlans(ctx context.Context) ([]*Plan, error) {
	return s.plans.List(ctx)
}

// MySubscription returns the caller's group subscription, if any.
func (s *Service) MySubscription(ctx context.Context, scope account.Scope) (*Subscription, error) {
	if scope.IsZero() {
		return nil, apperr.NewNotFound("subscription", "")
	}
	return s.subs.GetByGroup(ctx, scope.GroupID)
}

// Subscribe puts the group on a plan and opens a payment intent for the
// first period. The client confirms payment with the returned secret; the
// subscription is recorded immediately with a one-month period.
func (s *Service) Subscribe(ctx context.Context, scope account.Scope, planID uuid.UUID) (*Subscription, *payments.Intent, error) {
	if scope.IsZero() {
		return nil, nil, apperr.NewNotFound("plan", planID.String())
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.Active {
		return nil, nil, apperr.NewNotFound("plan", planID.String())
	}

	periodEnd := s.now().AddDate(0, 1, 0)
	var intent *payments.Intent
	if plan.PriceCents > 0 {
		key := fmt.Sprintf("sub:%s:%s:%s", scope.GroupID, plan.ID, periodEnd.Format("2006-01"))
		intent, err = s.provider.CreateIntent(ctx, plan.PriceCents, plan.Currency, key)
		if err != nil {
			return nil, nil, apperr.NewAdapter("payment", err)
		}
	}

	sub := &Subscription{
		GroupID:          scope.GroupID,
		PlanID:           plan.ID,
		Status:           SubscriptionActive,
		CurrentPeriodEnd: periodEnd,
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, nil, err
	}
	return sub, intent, nil
}

// CreateIntent opens a one-off payment intent, for example an appointment
// fee collected up front.
func (s *Service) CreateIntent(ctx context.Context, scope account.Scope, amountCents int64, currency string) (*payments.Intent, error) {
	if scope.IsZero() {
		return nil, apperr.NewNotFound("group", "")
	}
	if amountCents <= 0 {
		return nil, apperr.NewValidation("amount_cents", "amount must be positive")
	}
	currency = strings.TrimSpace(strings.ToLower(currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	intent, err := s.provider.CreateIntent(ctx, amountCents, currency, "")
	if err != nil {
		return nil, apperr.NewAdapter("payment", err)
	}
	return intent, nil
}
