package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter counts requests per client in a sliding window
type RateLimiter struct {
	attempts    map[string][]time.Time
	mutex       sync.Mutex
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewRateLimiter allows maxAttempts requests per client in every window.
// A maxAttempts of zero disables limiting.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts:    make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Allow records a request from client and reports whether it is within the
// limit, together with the wait until the next request would be allowed.
func (rl *RateLimiter) Allow(client string) (bool, time.Duration) {
	if rl.maxAttempts <= 0 {
		return true, 0
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	rl.prune(now)

	attempts := rl.attempts[client]
	if len(attempts) >= rl.maxAttempts {
		return false, attempts[0].Add(rl.window).Sub(now)
	}

	rl.attempts[client] = append(attempts, now)
	return true, 0
}

// prune drops attempts that left the window, and clients with none left
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)

	for client, attempts := range rl.attempts {
		i := 0
		for i < len(attempts) && !attempts[i].After(cutoff) {
			i++
		}
		if i == len(attempts) {
			delete(rl.attempts, client)
		} else if i > 0 {
			rl.attempts[client] = attempts[i:]
		}
	}
}

// limitKey is the client a request is counted against. Forwarding headers are
// only honoured behind a trusted proxy, which appends the address it saw as
// the last X-Forwarded-For entry.
func limitKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if values := r.Header.Values("X-Forwarded-For"); len(values) > 0 {
			entries := strings.Split(values[len(values)-1], ",")
			if last := strings.TrimSpace(entries[len(entries)-1]); last != "" {
				return last
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}
	return remoteHost(r)
}

// RateLimit limits state-changing requests per client IP. Reads pass through.
func RateLimit(rateLimiter *RateLimiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			allowed, wait := rateLimiter.Allow(limitKey(r, trustProxy))
			if !allowed {
				seconds := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"status":"rejected","message":"Too many requests. Please try again in %ds."}`+"\n", seconds)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
