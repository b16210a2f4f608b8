// Package engine wires the Walker, Diff Engine, Executor, Report
// Aggregator, Verifier and Scheduler into the in-process API surface named
// by spec §6: sync, sync_with_progress, calculate_diff_for_dry_run,
// verify_integrity, repair_integrity. Generalized from the teacher's Engine
// (internal/sync/engine.go), whose RunOnce observe→plan→execute→commit
// pipeline becomes this package's walk→diff→execute→report pipeline.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/syncforge/syncengine/internal/config"
	"github.com/syncforge/syncengine/internal/cryptostage"
	"github.com/syncforge/syncengine/internal/diffengine"
	"github.com/syncforge/syncengine/internal/provider"
	"github.com/syncforge/syncengine/internal/ratelimit"
	"github.com/syncforge/syncengine/internal/report"
	"github.com/syncforge/syncengine/internal/resume"
)

// ProviderFactory constructs a StorageProvider for acct. The engine ships a
// built-in factory for config.BackendLocal only: per-provider HTTP/REST
// quirks for the remaining backend kinds are out of scope (spec §1), so a
// caller embedding this engine against a real WebDAV/Aliyun/115/Quark
// account supplies its own factory here.
type ProviderFactory func(ctx context.Context, acct config.Account) (provider.StorageProvider, error)

// ProgressFunc receives one FileSyncResult per completed action,
// implementing sync_with_progress's callback (spec §6). SyncWithProgress
// calls it after the Executor has finished the whole plan, not while
// actions are still running.
type ProgressFunc func(report.FileSyncResult)

// Config bundles everything an Engine needs across every task it runs.
type Config struct {
	Config *config.Config

	// Providers resolves non-local accounts. May be nil if every account in
	// Config is backend "local".
	Providers ProviderFactory

	Store     resume.Store
	Persister *report.Persister
	Keys      *cryptostage.KeyStore
	Limiters  *ratelimit.Registry

	Logger *slog.Logger
}

// Engine runs sync, dry-run-diff, verify and repair operations for the
// tasks named in Config.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	cooldown *diffengine.Cooldown
}

// New returns an Engine over cfg. Config and Store are required; Limiters
// is constructed if nil.
func New(cfg Config) (*Engine, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("engine: Config.Config is required")
	}

	if cfg.Store == nil {
		return nil, fmt.Errorf("engine: Config.Store is required")
	}

	if cfg.Limiters == nil {
		cfg.Limiters = ratelimit.NewRegistry()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{cfg: cfg, logger: cfg.Logger, cooldown: diffengine.NewCooldown()}, nil
}

// Close releases the Engine's resume store connection.
func (e *Engine) Close() error {
	return e.cfg.Store.Close()
}

// task looks up a task and its two accounts by id.
func (e *Engine) task(taskID string) (config.Task, config.Account, config.Account, error) {
	task, err := e.cfg.Config.FindTask(taskID)
	if err != nil {
		return config.Task{}, config.Account{}, config.Account{}, fmt.Errorf("engine: %w", err)
	}

	source, err := e.cfg.Config.FindAccount(task.SourceAccountID)
	if err != nil {
		return config.Task{}, config.Account{}, config.Account{}, fmt.Errorf("engine: %w", err)
	}

	target, err := e.cfg.Config.FindAccount(task.TargetAccountID)
	if err != nil {
		return config.Task{}, config.Account{}, config.Account{}, fmt.Errorf("engine: %w", err)
	}

	return *task, *source, *target, nil
}

// buildProvider constructs the unwrapped StorageProvider for acct.
func (e *Engine) buildProvider(ctx context.Context, acct config.Account) (provider.StorageProvider, error) {
	switch acct.Kind {
	case config.BackendLocal:
		p, err := provider.NewLocalProvider(acct.Credentials["root"])
		if err != nil {
			return nil, fmt.Errorf("engine: account %s: %w", acct.ID, err)
		}

		return p, nil
	default:
		if e.cfg.Providers == nil {
			return nil, fmt.Errorf("engine: account %s: no ProviderFactory configured for backend %q", acct.ID, acct.Kind)
		}

		p, err := e.cfg.Providers(ctx, acct)
		if err != nil {
			return nil, fmt.Errorf("engine: account %s: %w", acct.ID, err)
		}

		return p, nil
	}
}

// limitersFor returns the shared AccountLimiters for acct, constructing it
// on first access.
func (e *Engine) limitersFor(acct config.Account) *ratelimit.AccountLimiters {
	return e.cfg.Limiters.Get(acct.ID, ratelimit.Spec{
		Algorithm:      acct.RateLimit.Algorithm,
		RequestsPerSec: acct.RateLimit.RefillPerSec,
		WindowSecs:     acct.RateLimit.WindowSecs,
		WindowCap:      acct.RateLimit.WindowCap,
		BytesPerSec:    acct.RateLimit.RefillPerSec,
	})
}

// resolvePair builds the unwrapped source/target providers and their
// account limiters. Providers are handed to the Executor unwrapped because
// the Executor already acquires request tokens itself, in source-then-target
// order, before every provider call (spec §4.7 step 3) — wrapping here too
// would charge every transfer against the bucket twice.
func (e *Engine) resolvePair(ctx context.Context, source, target config.Account) (provider.StorageProvider, provider.StorageProvider, *ratelimit.AccountLimiters, *ratelimit.AccountLimiters, error) {
	src, err := e.buildProvider(ctx, source)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	tgt, err := e.buildProvider(ctx, target)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return src, tgt, e.limitersFor(source), e.limitersFor(target), nil
}

// walkingPair wraps the source/target providers in RateLimitedProvider for
// callers that list/stat outside the Executor's own token-acquisition path
// (the Walker feeding Diff, and the Verifier) — those need their own request
// throttling since the Executor's acquireTokens never runs for them.
func (e *Engine) walkingPair(ctx context.Context, source, target config.Account) (provider.StorageProvider, provider.StorageProvider, error) {
	src, tgt, srcLimiters, tgtLimiters, err := e.resolvePair(ctx, source, target)
	if err != nil {
		return nil, nil, err
	}

	return provider.NewRateLimitedProvider(src, srcLimiters.Requests, srcLimiters.Bytes),
		provider.NewRateLimitedProvider(tgt, tgtLimiters.Requests, tgtLimiters.Bytes), nil
}

// encryptionBinding translates a task's EncryptionConfig into a
// cryptostage.Binding, or nil if the task carries no encryption.
func encryptionBinding(ec config.EncryptionConfig) *cryptostage.Binding {
	if !ec.Enabled() {
		return nil
	}

	return &cryptostage.Binding{
		Algorithm: cryptostage.Algorithm(ec.Algorithm),
		KeyID:     ec.KeyID,
		IVMode:    cryptostage.IVMode(ec.IVMode),
	}
}

// newCycleID mints a fresh identifier for one sync/verify run, matching the
// teacher's planner.go CycleID minting via google/uuid.
func newCycleID() string {
	return uuid.New().String()
}

// cryptoStage returns the Stage to wire into an Executor for task, or nil if
// task carries no encryption binding.
func (e *Engine) cryptoStage(task config.Task) *cryptostage.Stage {
	if !task.Encryption.Enabled() {
		return nil
	}

	return cryptostage.NewStage(e.cfg.Keys)
}
