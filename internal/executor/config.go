package executor

import (
	"log/slog"
	"time"

	"github.com/syncforge/syncengine/internal/cryptostage"
	"github.com/syncforge/syncengine/internal/provider"
	"github.com/syncforge/syncengine/internal/ratelimit"
	"github.com/syncforge/syncengine/internal/resume"
)

// minWorkers is the floor for executor concurrency, matching the teacher's
// worker-pool floor (worker.go).
const minWorkers = 4

// Config bundles everything one Executor run needs: the two providers, their
// rate limiters, an optional encryption binding, the resume store, and
// tuning knobs.
type Config struct {
	TaskID string

	Source provider.StorageProvider
	Target provider.StorageProvider

	SourceLimiters *ratelimit.AccountLimiters
	TargetLimiters *ratelimit.AccountLimiters

	Encryption      *cryptostage.Binding
	CryptoStage     *cryptostage.Stage
	PreserveMetadata bool

	Store Resumer

	Concurrency int
	Retry       RetryPolicy

	Logger *slog.Logger
}

// Resumer is the subset of resume.Store the executor depends on, kept as an
// interface so tests can fake it without a real database.
type Resumer interface {
	Upsert(record resume.Record) error
	Get(taskID, path string) (resume.Record, bool, error)
	Delete(taskID, path string) error
}

func (c *Config) workerCount() int {
	if c.Concurrency < minWorkers {
		return minWorkers
	}

	return c.Concurrency
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.Default()
}

// nowFunc is overridable in tests needing deterministic timestamps.
var nowFunc = time.Now
