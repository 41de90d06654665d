package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type memoryLimiterStore struct {
	counts map[string]int64
}

func (m *memoryLimiterStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func TestAuthRateLimitBlocksByEmail(t *testing.T) {
	store := &memoryLimiterStore{}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"asha@example.com"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("first request blocked: %d", code)
	}
	if code := send(); code != http.StatusOK {
		t.Fatalf("second request blocked: %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once over the limit, got %d", code)
	}
}

func TestAuthRateLimitBlocksByIP(t *testing.T) {
	store := &memoryLimiterStore{}
	policy := NewAuthRateLimitPolicy("register", time.Minute, 1, 0)
	handler := AuthRateLimit(policy, store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request blocked: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/register", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for repeated ip, got %d", rec.Code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := AuthRateLimit(AuthRateLimitPolicy{}, &memoryLimiterStore{}, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled policy should not block, got %d", rec.Code)
		}
	}
}
