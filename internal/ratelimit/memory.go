package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter is a per-process token bucket per key. The bucket holds
// Policy.Limit tokens and refills Limit tokens per Window.
type MemoryLimiter struct {
	policy  Policy
	every   time.Duration
	idle    time.Duration
	now     func() time.Time
	mu      sync.Mutex
	clients map[string]*clientLimiter

	// lastSweep is when cleanupLocked last walked clients.
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates an in-memory limiter for policy.
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	if policy.Limit <= 0 {
		policy.Limit = 1
	}
	if policy.Window <= 0 {
		policy.Window = time.Minute
	}
	return &MemoryLimiter{
		policy:  policy,
		every:   policy.Window / time.Duration(policy.Limit),
		idle:    policy.Window,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

// Allow implements Limiter.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := m.now()
	limiter := m.getLimiter(key, now)

	allowed := limiter.AllowN(now, 1)
	tokens := limiter.TokensAt(now)
	remaining := int(math.Max(0, math.Floor(tokens)))

	resetAt := now
	if missing := float64(m.policy.Limit) - tokens; missing > 0 {
		resetAt = now.Add(time.Duration(missing * float64(m.every)))
	}
	if !allowed {
		resetAt = now.Add(time.Duration((1 - tokens) * float64(m.every)))
	}

	return Result{
		Allowed:   allowed,
		Limit:     m.policy.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func (m *MemoryLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.clients[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(m.every), m.policy.Limit)
	m.clients[key] = &clientLimiter{limiter: limiter, lastSeen: now}
	if now.Sub(m.lastSweep) >= m.idle {
		m.cleanupLocked(now)
	}
	return limiter
}

// cleanupLocked drops clients idle for a full window; their bucket is full again.
// It runs at most once per window.
func (m *MemoryLimiter) cleanupLocked(now time.Time) {
	m.lastSweep = now
	for key, entry := range m.clients {
		if now.Sub(entry.lastSeen) > m.idle {
			delete(m.clients, key)
		}
	}
}
