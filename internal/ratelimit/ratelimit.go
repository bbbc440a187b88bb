// Package ratelimit implements fixed window request limiting keyed by an
// arbitrary string, usually the client IP.
package ratelimit

import (
	"context"
	"time"
)

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long the caller should wait before the window resets,
// rounded up to whole seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	return (d + time.Second - 1) / time.Second * time.Second
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
