// Package ratelimit provides per-client request rate limiting using
// token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket refilled continuously at a steady rate.
type bucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

func (b *bucket) refillLocked(now time.Time) {
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// Info describes the rate limit state returned with each decision.
type Info struct {
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter tracks one token bucket per client identifier.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit  int
	window time.Duration

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a limiter allowing `limit` requests per window
// per client. Idle client buckets are dropped periodically.
func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	l := &Limiter{
		buckets:       make(map[string]*bucket),
		limit:         limit,
		window:        window,
		cleanupTicker: time.NewTicker(5 * time.Minute),
		cleanupStop:   make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow consumes one token for the client if available.
func (l *Limiter) Allow(clientID string) (bool, Info) {
	b := l.bucketFor(clientID)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refillLocked(now)
	b.lastAccess = now

	info := Info{Limit: l.limit}
	if b.tokens >= 1 {
		b.tokens--
		info.Remaining = int(b.tokens)
		info.ResetTime = now.Add(l.timeToFull(b))
		return true, info
	}

	info.Remaining = 0
	info.RetryAfter = time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
	info.ResetTime = now.Add(l.timeToFull(b))
	return false, info
}

// Stop halts the idle-bucket cleanup goroutine.
func (l *Limiter) Stop() {
	l.cleanupTicker.Stop()
	close(l.cleanupStop)
}

func (l *Limiter) bucketFor(clientID string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[clientID]
	if !ok {
		now := time.Now()
		b = &bucket{
			capacity:   float64(l.limit),
			refillRate: float64(l.limit) / l.window.Seconds(),
			tokens:     float64(l.limit),
			lastRefill: now,
			lastAccess: now,
		}
		l.buckets[clientID] = b
	}
	return b
}

func (l *Limiter) timeToFull(b *bucket) time.Duration {
	missing := b.capacity - b.tokens
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / b.refillRate * float64(time.Second))
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanupTicker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			l.mu.Lock()
			for id, b := range l.buckets {
				b.mu.Lock()
				idle := b.lastAccess.Before(cutoff)
				b.mu.Unlock()
				if idle {
					delete(l.buckets, id)
				}
			}
			l.mu.Unlock()
		case <-l.cleanupStop:
			return
		}
	}
}
