package ratelimit

import (
	"sync"
	"time"
)

// AccountLimiters is the pair of limiters enforced for a single account: a
// request-count limiter and a byte-throughput limiter. Two tasks against the
// same account share both.
type AccountLimiters struct {
	Requests Limiter
	Bytes    Limiter
}

// Spec describes the limiter configuration for one account.
type Spec struct {
	Algorithm        string // "token_bucket" or "sliding_window"
	RequestsPerSec   float64
	WindowSecs       int
	WindowCap        int
	BytesPerSec      float64
}

// Registry lazily creates and caches one AccountLimiters per account id,
// so concurrent tasks against the same account share its rate limit rather
// than each getting an independent budget.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*AccountLimiters
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*AccountLimiters)}
}

// Get returns the AccountLimiters for accountID, constructing it from spec
// on first access. Subsequent calls with the same accountID ignore spec and
// return the existing pair.
func (r *Registry) Get(accountID string, spec Spec) *AccountLimiters {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.limiters[accountID]; ok {
		return existing
	}

	al := &AccountLimiters{
		Bytes: NewTokenBucketLimiter(spec.BytesPerSec),
	}

	switch spec.Algorithm {
	case "sliding_window":
		al.Requests = NewSlidingWindowLimiter(time.Duration(spec.WindowSecs)*time.Second, spec.WindowCap)
	default:
		al.Requests = NewTokenBucketLimiter(spec.RequestsPerSec)
	}

	r.limiters[accountID] = al

	return al
}

// Remove drops the cached limiters for accountID, e.g. after the account is
// deleted from configuration.
func (r *Registry) Remove(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.limiters, accountID)
}
