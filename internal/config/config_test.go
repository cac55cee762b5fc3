package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/clinicore_test")
	t.Cleanup(func() { os.Unsetenv("DATABASE_URL") })
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.DefaultTenant != "default" {
		t.Errorf("expected default tenant, got %s", cfg.DefaultTenant)
	}
	if cfg.BlockLockLeadDays != 2 {
		t.Errorf("expected default lock lead of 2 days, got %d", cfg.BlockLockLeadDays)
	}
	if cfg.DefaultCurrency != "usd" {
		t.Errorf("expected default currency usd, got %s", cfg.DefaultCurrency)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("PORT", "9090")
	os.Setenv("BLOCK_LOCK_LEAD_DAYS", "3")
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("BLOCK_LOCK_LEAD_DAYS")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.BlockLockLeadDays != 3 {
		t.Errorf("expected lock lead 3, got %d", cfg.BlockLockLeadDays)
	}
}

func TestValidate_ProductionRequiresIssuer(t *testing.T) {
	cfg := &Config{Env: "production", StripeSecretKey: "sk_test_x", BlockLockLeadDays: 2}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when AUTH_ISSUER is unset in production")
	}
	cfg.AuthIssuer = "https://auth.example.com/realms/clinic"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_DevNeedsNoIssuer(t *testing.T) {
	cfg := &Config{Env: "development", BlockLockLeadDays: 2}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_LockLeadBounds(t *testing.T) {
	cfg := &Config{Env: "development", BlockLockLeadDays: 9}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range BLOCK_LOCK_LEAD_DAYS")
	}
}

func TestValidate_ProductionRequiresStripeKey(t *testing.T) {
	cfg := &Config{Env: "production", AuthIssuer: "https://auth.example.com", BlockLockLeadDays: 2}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when STRIPE_SECRET_KEY is unset in production")
	}
}
