// Package retry runs an operation until it succeeds or the attempt budget is spent.
package retry

import (
	"context"
	"time"
)

// Policy describes how many times to try and how long to wait between tries.
// Backoff receives the attempt that just failed (1-based).
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration

	// Sleep waits between attempts; nil uses a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default is three attempts with 500ms, then 2s between them.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     Quadratic(500 * time.Millisecond),
	}
}

// Quadratic waits base × attempt².
func Quadratic(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt*attempt)
	}
}

// Do calls fn until it returns nil, the attempts run out, or ctx is done.
// It returns the last error from fn, or ctx.Err() if the wait was cut short.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
