package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimit returns a middleware that applies a per-client token bucket to
// the routes it wraps. Each client IP gets its own limiter allowing `rps`
// requests per second with bursts up to `burst`; exceeding it returns
// 429 with the standard error shape.
//
// WHY PER-IP AND IN-PROCESS?
// The expensive resource being protected is the upstream agent call, and
// this is a single-binary deployment — a shared store (redis) would buy
// cross-instance accuracy this app doesn't need. RealIP middleware must run
// earlier in the chain so r.RemoteAddr reflects the actual client behind a
// proxy.
//
// The limiter map grows with distinct client IPs and is never pruned. Fine
// for this app's audience; a high-traffic deployment would want an
// LRU or TTL eviction here.
func RateLimit(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rps, burst)
			limiters[ip] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(r.RemoteAddr).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate_limited","message":"too many requests, slow down"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
