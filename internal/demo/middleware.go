// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package demo

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	csrf "filippo.io/csrf/gorilla"
	"golang.org/x/time/rate"
)

// CSRF returns a middleware protecting POST endpoints against cross-origin
// requests. The library relies on Fetch metadata headers, so no token is
// written into the rendered forms.
func CSRF(authKey []byte, isDev bool, addr string) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	}
	// In development, trust local origins so the widget can be exercised
	// from a separately served frontend.
	if isDev {
		opts = append(opts, csrf.TrustedOrigins([]string{addr, "localhost:" + portOf(addr), "127.0.0.1:" + portOf(addr)}))
	}
	return csrf.Protect(authKey, opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Error("CSRF validation failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
	)
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}

func portOf(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "8080"
	}
	return port
}

// RateLimiter throttles requests per client IP. Uploads and autocomplete
// queries are cheap individually but invite hammering.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// maxTrackedIPs caps the limiter map; beyond it the map is reset rather
// than evicted entry by entry.
const maxTrackedIPs = 10000

// NewRateLimiter creates a per-IP rate limiter. rps is requests per second,
// burst the maximum burst size.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// Middleware enforces the limit, answering 429 when exceeded.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.get(ip).Allow() {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = fmt.Fprint(w, `{"success": false, "error": "Rate limit exceeded. Please slow down."}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// get returns the limiter for ip, creating one if needed.
func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[ip]
	rl.mu.RUnlock()
	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring the write lock.
	if limiter, exists = rl.limiters[ip]; exists {
		return limiter
	}
	if len(rl.limiters) >= maxTrackedIPs {
		rl.limiters = make(map[string]*rate.Limiter)
	}
	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = limiter
	return limiter
}

// clientIP strips the port from the request's remote address. The chi
// RealIP middleware has already rewritten it from forwarding headers when
// they are present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
