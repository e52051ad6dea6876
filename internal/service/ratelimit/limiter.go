package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a keyed token bucket.
type Limiter struct {
	mu  sync.Mutex
	m   map[string]*bucket
	now func() time.Time
}

func New() *Limiter { return NewWithClock(time.Now) }

// NewWithClock lets tests drive time.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{m: make(map[string]*bucket), now: now}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}
	// refill
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// Interval is a single-slot limiter: at most one Allow per interval.
type Interval struct {
	l     *Limiter
	key   string
	every time.Duration
}

// NewInterval builds an Interval on top of l.
func NewInterval(l *Limiter, key string, every time.Duration) *Interval {
	return &Interval{l: l, key: key, every: every}
}

// Allow reports whether a call may go through now.
func (i *Interval) Allow() bool {
	if i.every <= 0 {
		return true
	}
	return i.l.Allow(i.key, 1, 1/i.every.Seconds())
}
