package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter()
	now := time.Now()

	assert.True(t, l.Allow("ip:1", 1, 2, now), "first request")
	assert.True(t, l.Allow("ip:1", 1, 2, now), "second request")
	assert.False(t, l.Allow("ip:1", 1, 2, now), "third request should be limited")

	later := now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("ip:1", 1, 2, later), "refill should allow after time")
}

func TestLimiterDifferentKeys(t *testing.T) {
	l := NewLimiter()
	now := time.Now()

	assert.True(t, l.Allow("ip:1", 1, 1, now))
	assert.True(t, l.Allow("ip:2", 1, 1, now))
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter()
	now := time.Now()
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("", 1, 1, now))
		assert.True(t, l.Allow("k", 0, 1, now))
	}
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	l := NewLimiter()
	now := time.Now()

	l.Allow("a", 1, 1, now)
	l.Allow("b", 1, 1, now)
	assert.Equal(t, 2, l.Len())

	l.Allow("c", 1, 1, now.Add(defaultIdle+time.Second))
	assert.Equal(t, 1, l.Len(), "idle buckets should be swept")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "/v1|10.0.0.1", Key(KeyIP, "/v1", "10.0.0.1", "resolve"))
	assert.Equal(t, "/v1|10.0.0.1|resolve", Key(KeyIPOp, "/v1", "10.0.0.1", "resolve"))
	assert.Empty(t, Key(KeyIP, "/v1", "", "resolve"))
}
