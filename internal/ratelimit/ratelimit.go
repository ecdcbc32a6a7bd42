// Package ratelimit throttles requests per client key.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a single limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long a rejected client should wait.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Limiter consumes one request slot for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Policy is a request budget over a window.
type Policy struct {
	Limit  int
	Window time.Duration
}
