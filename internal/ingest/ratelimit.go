package ingest

import (
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/logtap/internal/config"
)

// counterSweepThreshold bounds the rate-limit table before expired windows
// are collected.
const counterSweepThreshold = 1000

type rateCounter struct {
	count   int
	resetAt int64
}

// rateLimiter enforces fixed-window request budgets per client identity
// (network address). Loopback clients get the generous policy, everyone
// else the strict one.
type rateLimiter struct {
	mu       sync.Mutex
	counters map[string]*rateCounter
	loopback config.RateLimitPolicy
	remote   config.RateLimitPolicy
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	if cfg.Loopback.Requests <= 0 || cfg.Loopback.WindowMs <= 0 {
		cfg.Loopback = config.Default().RateLimit.Loopback
	}
	if cfg.Remote.Requests <= 0 || cfg.Remote.WindowMs <= 0 {
		cfg.Remote = config.Default().RateLimit.Remote
	}
	return &rateLimiter{
		counters: make(map[string]*rateCounter),
		loopback: cfg.Loopback,
		remote:   cfg.Remote,
	}
}

// allow increments the client's counter and reports whether the request is
// within budget. When the budget is exhausted it returns the time until
// the window resets.
func (r *rateLimiter) allow(clientAddr string, nowMs int64) (bool, time.Duration) {
	policy := r.remote
	if isLoopback(clientAddr) {
		policy = r.loopback
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.counters[clientAddr]
	if c == nil {
		if len(r.counters) >= counterSweepThreshold {
			r.sweepLocked(nowMs)
		}
		c = &rateCounter{}
		r.counters[clientAddr] = c
	}
	if nowMs > c.resetAt {
		c.count = 0
		c.resetAt = nowMs + int64(policy.WindowMs)
	}
	c.count++
	if c.count > policy.Requests {
		return false, time.Duration(c.resetAt-nowMs) * time.Millisecond
	}
	return true, 0
}

// sweepLocked drops counters whose window has expired. Called with the
// lock held.
func (r *rateLimiter) sweepLocked(nowMs int64) {
	for addr, c := range r.counters {
		if nowMs > c.resetAt {
			delete(r.counters, addr)
		}
	}
}

// isLoopback reports whether the client address belongs to the local host.
func isLoopback(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
