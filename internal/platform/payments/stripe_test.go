package payments

import (
	"context"
	"testing"
)

func TestStripeProvider_RequiresKey(t *testing.T) {
	p := NewStripeProvider("")
	_, err := p.CreateIntent(context.Background(), 5000, "usd", "")
	if err == nil {
		t.Fatal("expected error when secret key missing")
	}
}

func TestStripeProvider_RejectsNonPositiveAmount(t *testing.T) {
	p := NewStripeProvider("sk_test_123")
	for _, amount := range []int64{0, -100} {
		if _, err := p.CreateIntent(context.Background(), amount, "usd", ""); err == nil {
			t.Errorf("amount %d: expected error", amount)
		}
	}
}
