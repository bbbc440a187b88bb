package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Memory keeps windows in process memory. Expired windows are reset on the
// next hit and swept at most once per window length.
type Memory struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int
	length    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewMemory(limit int, length time.Duration) *Memory {
	return &Memory{
		windows: make(map[string]*window),
		limit:   limit,
		length:  length,
		now:     time.Now,
	}
}

func (m *Memory) Allow(ctx context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	w := m.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.length)}
		m.windows[key] = w
	}
	w.count++

	return Result{
		Allowed:   w.count <= m.limit,
		Limit:     m.limit,
		Remaining: max(0, m.limit-w.count),
		ResetAt:   w.resetAt,
	}, nil
}

// Len reports how many windows are tracked.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// sweep must be called with m.mu held.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.length {
		return
	}
	m.lastSweep = now
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}
