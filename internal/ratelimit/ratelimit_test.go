package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSendCooldownAndHourlyLimit(t *testing.T) {
	clock := newMockClock()
	l := NewOTP(&OTPConfig{SendCooldown: time.Minute, SendMaxPerHour: 2, SendMaxIPPerHour: 20, Clock: clock})
	defer l.Close()

	const id, ip = "guest@example.com", "203.0.113.9"
	if r := l.CheckSend(id, ip); !r.Allowed {
		t.Fatalf("first send should be allowed: %s", r.Reason)
	}
	l.RecordSend(id, ip)

	clock.Advance(20 * time.Second)
	r := l.CheckSend("GUEST@example.com", ip)
	if r.Allowed || r.Reason != "cooldown" || r.RetryAfter != 40*time.Second {
		t.Fatalf("expected cooldown with 40s left, got %+v", r)
	}

	clock.Advance(time.Minute)
	l.RecordSend(id, ip)
	clock.Advance(2 * time.Minute)
	if r := l.CheckSend(id, ip); r.Allowed || r.Reason != "hourly_limit" {
		t.Fatalf("expected hourly limit, got %+v", r)
	}

	clock.Advance(time.Hour)
	if r := l.CheckSend(id, ip); !r.Allowed {
		t.Fatalf("expected a new window after an hour, got %+v", r)
	}
}

func TestSendIPLimit(t *testing.T) {
	clock := newMockClock()
	l := NewOTP(&OTPConfig{SendCooldown: time.Millisecond, SendMaxPerHour: 100, SendMaxIPPerHour: 2, Clock: clock})
	defer l.Close()

	l.RecordSend("a@example.com", "203.0.113.9")
	l.RecordSend("b@example.com", "203.0.113.9")
	if r := l.CheckSend("c@example.com", "203.0.113.9"); r.Allowed || r.Reason != "ip_hourly_limit" {
		t.Fatalf("expected ip limit, got %+v", r)
	}
	if r := l.CheckSend("c@example.com", "198.51.100.1"); !r.Allowed {
		t.Fatalf("expected another IP to pass, got %+v", r)
	}
}

func TestVerifyLockoutAndReset(t *testing.T) {
	clock := newMockClock()
	l := NewOTP(&OTPConfig{VerifyMaxAttempts: 3, VerifyLockout: 5 * time.Minute, VerifyMaxIPPerHour: 30, Clock: clock})
	defer l.Close()

	const id, ip = "guest@example.com", "203.0.113.9"
	for i := 1; i <= 3; i++ {
		if r := l.CheckVerify(id, ip); !r.Allowed {
			t.Fatalf("attempt %d should be allowed: %s", i, r.Reason)
		}
		locked := l.RecordVerify(id, ip)
		if locked != (i == 3) {
			t.Fatalf("attempt %d: lockout=%v", i, locked)
		}
	}
	if r := l.CheckVerify(id, ip); r.Allowed || r.Reason != "lockout" || r.RetryAfter != 5*time.Minute {
		t.Fatalf("expected lockout, got %+v", r)
	}

	clock.Advance(5*time.Minute + time.Second)
	if r := l.CheckVerify(id, ip); !r.Allowed {
		t.Fatalf("expected lockout to lapse, got %+v", r)
	}
	if locked := l.RecordVerify(id, ip); locked {
		t.Fatalf("expected counter reset after lapsed lockout")
	}

	l.ResetVerify(id)
	l.RecordVerify(id, ip)
	l.RecordVerify(id, ip)
	if r := l.CheckVerify(id, ip); !r.Allowed {
		t.Fatalf("expected reset to clear attempts, got %+v", r)
	}
}

func TestCheckDoesNotConsume(t *testing.T) {
	l := NewOTP(&OTPConfig{SendCooldown: time.Minute, SendMaxPerHour: 1, SendMaxIPPerHour: 1, Clock: newMockClock()})
	defer l.Close()
	for i := 0; i < 5; i++ {
		if r := l.CheckSend("a@example.com", "203.0.113.9"); !r.Allowed {
			t.Fatalf("check %d consumed quota", i)
		}
	}
}

func TestBucketsReserve(t *testing.T) {
	clock := newMockClock()
	b := NewBuckets(10*time.Second, 2)
	b.clock = clock

	for i := 0; i < 2; i++ {
		if r := b.Reserve("203.0.113.9"); !r.Allowed {
			t.Fatalf("burst request %d should pass", i)
		}
	}
	r := b.Reserve("203.0.113.9")
	if r.Allowed || r.RetryAfter <= 0 || r.RetryAfter > 10*time.Second {
		t.Fatalf("expected throttle with wait under 10s, got %+v", r)
	}
	if r := b.Reserve("198.51.100.1"); !r.Allowed {
		t.Fatalf("expected separate bucket per key")
	}

	clock.Advance(10 * time.Second)
	if r := b.Reserve("203.0.113.9"); !r.Allowed {
		t.Fatalf("expected a refilled token, got %+v", r)
	}
}

func TestBucketsSweepIdleKeysPeriodically(t *testing.T) {
	clock := newMockClock()
	b := NewBuckets(time.Second, 1)
	b.clock = clock
	b.idleTTL = 10 * time.Second

	b.Reserve("203.0.113.1")
	clock.Advance(20 * time.Second)
	b.Reserve("203.0.113.2")
	if len(b.buckets) != 2 {
		t.Fatalf("expected no sweep within the interval, got %d buckets", len(b.buckets))
	}

	clock.Advance(50 * time.Second)
	b.Reserve("203.0.113.3")
	if len(b.buckets) != 1 {
		t.Fatalf("expected idle buckets swept, got %d", len(b.buckets))
	}
	if _, ok := b.buckets["203.0.113.3"]; !ok {
		t.Fatalf("expected the active key to survive the sweep")
	}
}

func TestBucketsMiddleware(t *testing.T) {
	b := NewBuckets(time.Hour, 1)
	handler := b.Middleware(false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		want       string
	}{
		{"rightmost public forwarded", map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"}, "10.0.0.1:1", true, "203.0.113.50"},
		{"all private forwarded", map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"}, "10.0.0.1:1", true, "10.0.0.1"},
		{"real ip header", map[string]string{"X-Real-IP": "203.0.113.51"}, "10.0.0.1:1", true, "203.0.113.51"},
		{"untrusted forwarded ignored", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "192.168.1.100:5", false, "192.168.1.100"},
		{"remote addr without port", nil, "192.168.1.100", false, "192.168.1.100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r, tt.trustProxy); got != tt.want {
				t.Fatalf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	for ip, want := range map[string]bool{
		"10.0.0.1":           true,
		"172.31.255.255":     true,
		"::1":                true,
		"fe80::1":            true,
		"::ffff:192.168.1.1": true,
		"::ffff:8.8.8.8":     false,
		"203.0.113.50":       false,
		"invalid":            false,
	} {
		if got := isPrivateIP(ip); got != want {
			t.Fatalf("isPrivateIP(%q) = %v, want %v", ip, got, want)
		}
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	for in, want := range map[string]string{
		"john.doe@example.com": "jo***@example.com",
		"  User@Example.Com  ": "us***@example.com",
		"ab@example.com":       "***@example.com",
		"+15551234567":         "***4567",
		"123":                  "***",
	} {
		if got := SanitizeIdentifier(in); got != want {
			t.Fatalf("SanitizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	if RetryAfterSeconds(0) != 1 || RetryAfterSeconds(1500*time.Millisecond) != 2 {
		t.Fatalf("unexpected rounding")
	}
}
