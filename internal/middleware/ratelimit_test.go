package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < 5; i++ {
		if !rl.Allow("1.2.3.4", 5, time.Minute) {
			t.Fatalf("request %d denied within limit", i+1)
		}
	}
	if rl.Allow("1.2.3.4", 5, time.Minute) {
		t.Error("request over the limit allowed")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < 5; i++ {
		rl.Allow("1.2.3.4", 5, time.Minute)
	}
	if !rl.Allow("5.6.7.8", 5, time.Minute) {
		t.Error("a different key was throttled")
	}
}

func TestAllowWindowResets(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < 3; i++ {
		rl.Allow("1.2.3.4", 3, 10*time.Millisecond)
	}
	if rl.Allow("1.2.3.4", 3, 10*time.Millisecond) {
		t.Fatal("over-limit request allowed")
	}
	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("1.2.3.4", 3, 10*time.Millisecond) {
		t.Error("request denied after window expired")
	}
}

func TestCleanupDropsExpiredEntries(t *testing.T) {
	rl := NewRateLimiter()
	rl.Allow("stale", 5, time.Nanosecond)
	rl.Allow("fresh", 5, time.Minute)
	time.Sleep(time.Millisecond)

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["stale"]; ok {
		t.Error("expired entry survived cleanup")
	}
	if _, ok := rl.entries["fresh"]; !ok {
		t.Error("live entry removed by cleanup")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	handler := RateLimit(rl, RealIP, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/login", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5000"
	if got := RealIP(r); got != "10.0.0.1" {
		t.Errorf("got %q, want 10.0.0.1", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := RealIP(r); got != "203.0.113.7" {
		t.Errorf("got %q, want first forwarded ip", got)
	}
}
