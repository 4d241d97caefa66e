package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 10*time.Second, retry)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(10 * time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok, "new window")

	now = now.Add(time.Hour)
	assert.Equal(t, 2, rl.Sweep())
}

func TestTokenBucket(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewTokenBucketLimiter(6, 2)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, _ := l.Allow("user:1")
		assert.True(t, ok)
	}
	ok, retry := l.Allow("user:1")
	assert.False(t, ok)
	assert.InDelta(t, (10 * time.Second).Seconds(), retry.Seconds(), 0.01)

	now = now.Add(10 * time.Second)
	ok, _ = l.Allow("user:1")
	assert.True(t, ok, "one token refilled")

	ok, _ = l.Allow("user:2")
	assert.True(t, ok)

	now = now.Add(time.Hour)
	assert.Equal(t, 2, l.Sweep(time.Minute))
}

var (
	_ Limiter = (*FixedWindowRateLimiter)(nil)
	_ Limiter = (*TokenBucketLimiter)(nil)
)
