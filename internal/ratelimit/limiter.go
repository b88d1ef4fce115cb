package ratelimit

import (
	"sync"
	"time"
)

type KeyType string

const (
	KeyIP   KeyType = "ip"
	KeyIPOp KeyType = "ip_op"
)

// Key builds the bucket key for a client under the given key type. Buckets
// are scoped per route so two routes never share a budget.
func Key(kind KeyType, route, clientIP, op string) string {
	if clientIP == "" {
		return ""
	}
	switch kind {
	case KeyIPOp:
		return route + "|" + clientIP + "|" + op
	default:
		return route + "|" + clientIP
	}
}

// Limiter is a set of token buckets keyed by string. Buckets idle for longer
// than the idle window are dropped on the next sweep.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	idle      time.Duration
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
	burst  float64
	perSec float64
}

const defaultIdle = 10 * time.Minute

func NewLimiter() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket), idle: defaultIdle}
}

// Allow returns true if the request is allowed, false if rate limited.
func (l *Limiter) Allow(key string, rps float64, burst int, now time.Time) bool {
	if key == "" || rps <= 0 || burst <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(burst), last: now}
		l.buckets[key] = b
	}
	b.configure(rps, burst)
	b.refill(now)

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Len reports the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.last) >= l.idle {
			delete(l.buckets, key)
		}
	}
}

func (b *bucket) configure(rps float64, burst int) {
	if b.perSec == rps && b.burst == float64(burst) {
		return
	}
	b.perSec = rps
	b.burst = float64(burst)
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	b.tokens += elapsed * b.perSec
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	b.last = now
}
