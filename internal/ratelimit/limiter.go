// Package ratelimit implements the sync engine's per-account rate limiting:
// a token-bucket limiter for smooth sustained throughput and a sliding-window
// limiter for hard request-count ceilings, shared across concurrent tasks
// targeting the same account.
package ratelimit

import "context"

// Limiter bounds the rate of some resource (requests or bytes). Acquire
// blocks until n units are available or ctx is done. TryAcquire is the
// non-blocking variant used by callers that prefer to back off rather than
// wait in-line.
type Limiter interface {
	// Acquire blocks until n units of capacity are available.
	Acquire(ctx context.Context, n int) error

	// TryAcquire reports whether n units were available and, if so, consumes
	// them without blocking.
	TryAcquire(n int) bool

	// CurrentRate returns the configured steady-state rate in units/sec.
	CurrentRate() float64

	// SetRate changes the steady-state rate to ratePerSec, taking effect on
	// the next Acquire/TryAcquire call. Fixes the source limiter's
	// set_rate, a no-op that silently discarded rate changes (spec §9).
	SetRate(ratePerSec float64)
}
