// Package payments wraps the Stripe API behind a small provider interface
// so services and tests do not depend on the Stripe SDK directly.
package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// Intent is a created payment intent. ClientSecret goes back to the caller
// so the front end can confirm the payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Provider creates payment intents with an external payment processor.
type Provider interface {
	CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string) (*Intent, error)
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	secretKey string
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{secretKey: strings.TrimSpace(secretKey)}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string) (*Intent, error) {
	if p.secretKey == "" {
		return nil, fmt.Errorf("stripe secret key not configured")
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amountCents)
	}

	stripe.Key = p.secretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.IdempotencyKey = stripe.String(idempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}
