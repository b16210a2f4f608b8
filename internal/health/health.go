// Package health aggregates StorageProvider.Verify() results across every
// configured account, generalized down from the richer component-tracker
// pattern in the example pack's objectfs health package to the single
// liveness check the spec's provider capability actually exposes.
package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syncforge/syncengine/internal/config"
	"github.com/syncforge/syncengine/internal/provider"
)

// State is the liveness state of one account's backend.
type State int

// Account states, best-first: the overall state is the highest value seen.
const (
	StateHealthy State = iota
	StateUnavailable
)

func (s State) String() string {
	if s == StateHealthy {
		return "healthy"
	}

	return "unavailable"
}

// AccountHealth is the outcome of one account's Verify() call.
type AccountHealth struct {
	AccountID string
	State     State
	Err       error  `json:"-"`
	ErrMsg    string `json:"error,omitempty"`
	CheckedAt time.Time
}

// Report is the outcome of a full Check across every account.
type Report struct {
	Accounts []AccountHealth
	Overall  State
}

// ProviderFactory builds the StorageProvider to check for acct.
type ProviderFactory func(ctx context.Context, acct config.Account) (provider.StorageProvider, error)

// Checker runs Verify() against every account in a Config on demand, for an
// embedder's health endpoint.
type Checker struct {
	cfg     *config.Config
	factory ProviderFactory
}

// New returns a Checker over cfg's accounts, using factory to build each
// account's provider.
func New(cfg *config.Config, factory ProviderFactory) *Checker {
	return &Checker{cfg: cfg, factory: factory}
}

// Check runs Verify() against every account concurrently and returns the
// aggregate report. A provider construction failure counts as unavailable,
// same as a failed Verify().
func (c *Checker) Check(ctx context.Context) Report {
	results := make([]AccountHealth, len(c.cfg.Accounts))

	g, ctx := errgroup.WithContext(ctx)

	for i, acct := range c.cfg.Accounts {
		i, acct := i, acct

		g.Go(func() error {
			results[i] = c.checkAccount(ctx, acct)
			return nil
		})
	}

	_ = g.Wait()

	overall := StateHealthy
	for _, r := range results {
		if r.State > overall {
			overall = r.State
		}
	}

	return Report{Accounts: results, Overall: overall}
}

func (c *Checker) checkAccount(ctx context.Context, acct config.Account) AccountHealth {
	now := time.Now()

	p, err := c.factory(ctx, acct)
	if err != nil {
		return AccountHealth{AccountID: acct.ID, State: StateUnavailable, Err: err, ErrMsg: err.Error(), CheckedAt: now}
	}

	if err := p.Verify(ctx); err != nil {
		return AccountHealth{AccountID: acct.ID, State: StateUnavailable, Err: err, ErrMsg: err.Error(), CheckedAt: now}
	}

	return AccountHealth{AccountID: acct.ID, State: StateHealthy, CheckedAt: now}
}
