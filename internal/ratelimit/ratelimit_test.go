package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiterUnlimited(t *testing.T) {
	l := NewTokenBucketLimiter(0)
	require.True(t, l.TryAcquire(1_000_000))
	require.NoError(t, l.Acquire(context.Background(), 1_000_000))
}

func TestTokenBucketLimiterBursts(t *testing.T) {
	l := NewTokenBucketLimiter(10)
	require.True(t, l.TryAcquire(5))
	require.Greater(t, l.CurrentRate(), 0.0)
}

func TestSlidingWindowLimiterCapsWithinWindow(t *testing.T) {
	l := NewSlidingWindowLimiter(100*time.Millisecond, 3)

	require.True(t, l.TryAcquire(1))
	require.True(t, l.TryAcquire(1))
	require.True(t, l.TryAcquire(1))
	require.False(t, l.TryAcquire(1))

	time.Sleep(120 * time.Millisecond)
	require.True(t, l.TryAcquire(1))
}

func TestSlidingWindowLimiterAcquireBlocksThenSucceeds(t *testing.T) {
	l := NewSlidingWindowLimiter(50*time.Millisecond, 1)
	require.True(t, l.TryAcquire(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, l.Acquire(ctx, 1))
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestTokenBucketLimiterSetRateTakesEffect(t *testing.T) {
	l := NewTokenBucketLimiter(10)
	require.Equal(t, 10.0, l.CurrentRate())

	l.SetRate(50)
	require.Equal(t, 50.0, l.CurrentRate())

	// Unlimited -> limited and back, exercising the nil-limiter transition.
	l.SetRate(0)
	require.Equal(t, 0.0, l.CurrentRate())
	require.True(t, l.TryAcquire(1_000_000))

	l.SetRate(5)
	require.Equal(t, 5.0, l.CurrentRate())
}

func TestSlidingWindowLimiterSetRateTakesEffect(t *testing.T) {
	l := NewSlidingWindowLimiter(100*time.Millisecond, 1)

	require.True(t, l.TryAcquire(1))
	require.False(t, l.TryAcquire(1))

	l.SetRate(30) // 30/sec over a 100ms window -> cap 3
	require.True(t, l.TryAcquire(1))
	require.True(t, l.TryAcquire(1))
}

func TestRegistrySharesLimitersPerAccount(t *testing.T) {
	reg := NewRegistry()

	a := reg.Get("acct1", Spec{Algorithm: "token_bucket", RequestsPerSec: 5})
	b := reg.Get("acct1", Spec{Algorithm: "token_bucket", RequestsPerSec: 999})

	require.Same(t, a, b)

	c := reg.Get("acct2", Spec{Algorithm: "token_bucket", RequestsPerSec: 5})
	require.NotSame(t, a, c)
}
