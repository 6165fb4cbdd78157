package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	// rps is irrelevant here — the burst bucket starts full
	h := RateLimit(rate.Limit(1), 3)(okHandler())

	for i := 0; i < 3; i++ {
		if rec := doFrom(h, "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestRateLimit_BlocksPastBurst(t *testing.T) {
	h := RateLimit(rate.Limit(0.001), 2)(okHandler())

	doFrom(h, "10.0.0.1:1234")
	doFrom(h, "10.0.0.1:1234")

	rec := doFrom(h, "10.0.0.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

// Each client IP gets its own bucket — exhausting one must not affect another.
func TestRateLimit_PerClientBuckets(t *testing.T) {
	h := RateLimit(rate.Limit(0.001), 1)(okHandler())

	if rec := doFrom(h, "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("first client, first request: status = %d", rec.Code)
	}
	if rec := doFrom(h, "10.0.0.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client, second request: status = %d, want 429", rec.Code)
	}

	if rec := doFrom(h, "10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Errorf("second client should have a fresh bucket, got %d", rec.Code)
	}
}
