package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
)

func limitedHandler(cfg RateLimitConfig) (*echo.Echo, echo.HandlerFunc) {
	e := echo.New()
	h := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e, h
}

func doRequest(e *echo.Echo, h echo.HandlerFunc, group string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if group != "" {
		c.Set("jwt_group_id", group)
	}
	return rec, h(c)
}

func TestRateLimit_WithinBurst(t *testing.T) {
	e, h := limitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		rec, err := doRequest(e, h, "clinic_norte")
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit 10, got %q", i+1, got)
		}
	}
}

func TestRateLimit_BurstExhausted(t *testing.T) {
	e, h := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		if _, err := doRequest(e, h, "clinic_norte"); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}

	rec, err := doRequest(e, h, "clinic_norte")
	if err == nil {
		t.Fatal("expected third request to be limited")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}

	retryAfter := rec.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Fatal("expected Retry-After header")
	}
	if v, parseErr := strconv.Atoi(retryAfter); parseErr != nil || v < 1 {
		t.Errorf("expected positive integer Retry-After, got %q", retryAfter)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", got)
	}
}

func TestRateLimit_GroupsGetSeparateBuckets(t *testing.T) {
	e, h := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if _, err := doRequest(e, h, "clinic_norte"); err != nil {
		t.Fatalf("clinic_norte first request: %v", err)
	}
	if _, err := doRequest(e, h, "clinic_norte"); err == nil {
		t.Fatal("clinic_norte second request should be limited")
	}
	if _, err := doRequest(e, h, "clinic_sur"); err != nil {
		t.Fatalf("clinic_sur should have its own bucket: %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 {
		t.Errorf("expected RequestsPerSecond 100, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 200 {
		t.Errorf("expected BurstSize 200, got %d", cfg.BurstSize)
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", ra)
	}
}

func TestRateLimiterStore_ReusesBuckets(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	b1 := store.getBucket("clinic_norte")
	if b1 == nil {
		t.Fatal("expected bucket")
	}
	if b2 := store.getBucket("clinic_norte"); b1 != b2 {
		t.Error("expected same bucket for same key")
	}
	if b3 := store.getBucket("clinic_sur"); b1 == b3 {
		t.Error("expected distinct bucket per key")
	}
}
