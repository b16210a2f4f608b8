package executor

import (
	"context"
	"sync"
	"time"

	"github.com/syncforge/syncengine/internal/diffengine"
	"github.com/syncforge/syncengine/internal/provider"
	"golang.org/x/sync/errgroup"
)

// Executor runs a sorted diffengine.Result against a source/target provider
// pair, generalized from the teacher's WorkerPool (worker.go): a bounded
// goroutine pool pulling diffs off a shared slice, each wrapped in retry and
// dir-ordering logic before being dispatched to an action handler.
type Executor struct {
	cfg  Config
	dirs *dirTracker
}

// New builds an Executor from cfg.
func New(cfg Config) *Executor {
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy()
	}

	return &Executor{cfg: cfg, dirs: newDirTracker()}
}

// Run dispatches every diff concurrently (bounded by Config.Concurrency,
// floored at minWorkers) and returns one Outcome per diff, in no particular
// order. After the first fatal error, diffs that have not started yet are
// recorded as OutcomeCancelled; Run waits for the dispatches already in
// flight and returns every outcome together with that first fatal error.
func (e *Executor) Run(ctx context.Context, diffs []diffengine.FileDiff) ([]Outcome, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.workerCount())

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(diffs))
	)

	for _, d := range diffs {
		d := d

		g.Go(func() error {
			var out Outcome

			if gctx.Err() != nil {
				out = Outcome{Path: d.Path, Type: d.Type, Status: OutcomeCancelled, Err: gctx.Err()}
			} else {
				out = e.dispatch(gctx, d)
			}

			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()

			if out.Status == OutcomeFailed && provider.IsFatal(out.Err) {
				return out.Err
			}

			return nil
		})
	}

	err := g.Wait()

	return outcomes, err
}

// withRetry runs fn, retrying on classified-retryable errors with the
// configured exponential backoff, and stopping immediately on a fatal or
// non-retryable error or context cancellation.
func (e *Executor) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	policy := e.cfg.Retry

	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if provider.IsFatal(err) || !provider.IsRetryable(err) {
			return err
		}

		if attempt == policy.MaxAttempts-1 {
			break
		}

		delay := policy.calcBackoff(attempt)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
