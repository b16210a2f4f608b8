// Package executor consumes a sorted diffengine.Result and dispatches each
// action against a provider.StorageProvider: downloading from source,
// optionally encrypting, uploading to target, deleting, creating
// directories, and moving, with retry, resume, and rate-limit integration
// per spec §4.7.
package executor

import (
	"math"
	"math/rand/v2"
	"time"
)

// Retry policy defaults from spec §4.7, overriding the teacher's
// ±25%/5-retries OneDrive-specific numbers (graph/client.go) with the
// spec-authoritative ±10% jitter — the backoff shape (exponential with cap)
// is otherwise identical.
const (
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 60 * time.Second
	DefaultFactor       = 2.0
	jitterFraction      = 0.10
)

// RetryPolicy configures an action's retry loop.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
}

// DefaultRetryPolicy returns the spec's default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Factor:       DefaultFactor,
	}
}

// calcBackoff computes exponential backoff with ±10% jitter, ported from the
// teacher's calcBackoff (graph/client.go) with the spec's tighter jitter
// fraction and attempt count.
func (p RetryPolicy) calcBackoff(attempt int) time.Duration {
	backoff := float64(p.InitialDelay) * math.Pow(p.Factor, float64(attempt))
	if backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1)
	backoff += jitter

	if backoff < 0 {
		backoff = 0
	}

	return time.Duration(backoff)
}
