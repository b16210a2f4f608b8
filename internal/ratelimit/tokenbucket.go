package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// burstMultiplier controls the token bucket burst size relative to the
// per-second rate, matching the teacher's BandwidthLimiter: a 2x burst lets
// short idle periods bank tokens for the next request without raising
// sustained throughput above the configured limit.
const burstMultiplier = 2

// TokenBucketLimiter wraps golang.org/x/time/rate.Limiter, the teacher's
// bandwidth-limiting primitive, generalized here from byte throughput to any
// countable unit (requests or bytes). The limiter pointer is held behind an
// atomic so SetRate can swap in a differently-configured rate.Limiter
// without a mutex around every Acquire/TryAcquire call.
type TokenBucketLimiter struct {
	limiter atomic.Pointer[rate.Limiter]
}

// NewTokenBucketLimiter creates a limiter allowing ratePerSec units/sec with
// a burst of ratePerSec*burstMultiplier. A ratePerSec of 0 means unlimited;
// Acquire and TryAcquire become no-ops.
func NewTokenBucketLimiter(ratePerSec float64) *TokenBucketLimiter {
	l := &TokenBucketLimiter{}
	l.storeRate(ratePerSec)

	return l
}

func (l *TokenBucketLimiter) Acquire(ctx context.Context, n int) error {
	cur := l.limiter.Load()
	if cur == nil {
		return nil
	}

	return waitN(ctx, cur, n)
}

func (l *TokenBucketLimiter) TryAcquire(n int) bool {
	cur := l.limiter.Load()
	if cur == nil {
		return true
	}

	return cur.AllowN(time.Now(), n)
}

func (l *TokenBucketLimiter) CurrentRate() float64 {
	cur := l.limiter.Load()
	if cur == nil {
		return 0
	}

	return float64(cur.Limit())
}

// SetRate changes the steady-state rate to ratePerSec, taking effect on the
// next Acquire/TryAcquire call (spec §9: the source's set_rate no-op must
// actually apply). A ratePerSec of 0 or less switches the limiter to
// unlimited.
func (l *TokenBucketLimiter) SetRate(ratePerSec float64) {
	l.storeRate(ratePerSec)
}

func (l *TokenBucketLimiter) storeRate(ratePerSec float64) {
	if ratePerSec <= 0 {
		l.limiter.Store(nil)
		return
	}

	burst := int(ratePerSec * burstMultiplier)
	if burst < 1 {
		burst = 1
	}

	l.limiter.Store(rate.NewLimiter(rate.Limit(ratePerSec), burst))
}

// waitN splits a request exceeding the burst size into burst-sized chunks,
// since rate.Limiter.WaitN rejects requests larger than the burst — the
// teacher's waitN helper in bandwidth.go, generalized to any *rate.Limiter.
func waitN(ctx context.Context, limiter *rate.Limiter, n int) error {
	burst := limiter.Burst()
	if burst <= 0 {
		return fmt.Errorf("ratelimit: limiter has zero burst")
	}

	for n > 0 {
		take := n
		if take > burst {
			take = burst
		}

		if err := limiter.WaitN(ctx, take); err != nil {
			return fmt.Errorf("ratelimit: wait: %w", err)
		}

		n -= take
	}

	return nil
}
