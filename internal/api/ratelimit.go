// Per-client request budget for the observer endpoints.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter hands out a fixed number of requests per client and window.
// Clients are keyed by socket peer unless the peer is a trusted proxy.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*allowance
	limit   int
	window  time.Duration
	now     func() time.Time
	trusted map[string]bool
}

type allowance struct {
	left    int
	resetAt time.Time
}

// NewRateLimiter allows limit requests per window for each client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*allowance),
		limit:   limit,
		window:  window,
		now:     time.Now,
		trusted: make(map[string]bool),
	}
}

// Trust lets the given proxy hosts name the client in X-Forwarded-For.
func (rl *RateLimiter) Trust(hosts ...string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			rl.trusted[h] = true
		}
	}
}

// Allow spends one request from the client's allowance.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	a, ok := rl.clients[client]
	if !ok || !now.Before(a.resetAt) {
		if len(rl.clients) > 1024 {
			rl.prune(now)
		}
		rl.clients[client] = &allowance{left: rl.limit - 1, resetAt: now.Add(rl.window)}
		return rl.limit > 0
	}
	if a.left > 0 {
		a.left--
		return true
	}
	return false
}

// RetryAfter returns the whole seconds until the client's window resets.
func (rl *RateLimiter) RetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	a, ok := rl.clients[client]
	if !ok {
		return 0
	}
	remaining := a.resetAt.Sub(rl.now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// prune drops expired allowances. Caller holds mu.
func (rl *RateLimiter) prune(now time.Time) {
	for client, a := range rl.clients {
		if !now.Before(a.resetAt) {
			delete(rl.clients, client)
		}
	}
}

// clientAddr is the socket peer, or the first X-Forwarded-For hop when the
// peer is a trusted proxy.
func (rl *RateLimiter) clientAddr(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}

	rl.mu.Lock()
	trusted := rl.trusted[peer]
	rl.mu.Unlock()
	if !trusted {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return peer
}

// RateLimitMiddleware answers 429 once a client exceeds its allowance.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := rl.clientAddr(r)
		if !rl.Allow(client) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(client)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
