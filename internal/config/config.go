// Package config implements TOML configuration loading and validation for
// the sync engine's accounts and tasks.
package config

import (
	"fmt"
)

// BackendKind is the tagged variant identifying a remote storage backend.
type BackendKind string

// Supported backend kinds. Local is the filesystem side of a sync task.
const (
	BackendWebDAV BackendKind = "webdav"
	BackendAliyun BackendKind = "aliyun"
	Backend115    BackendKind = "115"
	BackendQuark  BackendKind = "quark"
	BackendLocal  BackendKind = "local"
)

// Account is the identity of a remote tenant: stable id, backend kind,
// opaque credentials, and per-account rate-limit / retry knobs. Immutable
// during a sync run (data-model.md section on Account).
type Account struct {
	ID          string            `toml:"id"`
	Kind        BackendKind       `toml:"kind"`
	Credentials map[string]string `toml:"credentials"`
	RateLimit   RateLimitConfig   `toml:"rate_limit"`
	Retry       RetryConfig       `toml:"retry"`
	MaxConcurrent int             `toml:"max_concurrent"`
}

// RateLimitConfig configures an account's rate limiter.
type RateLimitConfig struct {
	Algorithm string  `toml:"algorithm"` // "token_bucket" or "sliding_window"
	Capacity  int     `toml:"capacity"`
	RefillPerSec float64 `toml:"refill_per_sec"`
	WindowSecs int    `toml:"window_secs"`
	WindowCap  int    `toml:"window_cap"`
}

// RetryConfig configures an account's retry/backoff policy.
type RetryConfig struct {
	InitialDelaySecs float64 `toml:"initial_delay_secs"`
	Factor           float64 `toml:"factor"`
	MaxDelaySecs     float64 `toml:"max_delay_secs"`
	MaxAttempts      int     `toml:"max_attempts"`
}

// DefaultRetryConfig returns the spec's default retry policy (section 4.7):
// initial 1s, factor 2, max 60s, 5 attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelaySecs: 1,
		Factor:           2,
		MaxDelaySecs:     60,
		MaxAttempts:      5,
	}
}

// DiffMode controls how the Diff Engine compares source and target trees.
type DiffMode string

// Diff modes as accepted by a Task.
const (
	DiffFull        DiffMode = "full"
	DiffIncremental DiffMode = "incremental"
	DiffSmart       DiffMode = "smart"
)

// EncryptionConfig binds a task to an AEAD algorithm, key id, and IV mode.
// A zero value (Algorithm == "") means the task carries no encryption.
type EncryptionConfig struct {
	Algorithm string `toml:"algorithm"`
	KeyID     string `toml:"key_id"`
	IVMode    string `toml:"iv_mode"`
}

// Enabled reports whether the task carries an encryption binding.
func (e EncryptionConfig) Enabled() bool {
	return e.Algorithm != ""
}

// SyncPolicy controls reconciliation semantics for a Task (glossary: Sync policy).
type SyncPolicy struct {
	DeleteOrphans     bool  `toml:"delete_orphans"`
	OverwriteExisting bool  `toml:"overwrite_existing"`
	ScanCooldownSecs  int64 `toml:"scan_cooldown_secs"`
}

// ScheduleConfig binds a task to a Scheduler trigger (spec §4.11). An empty
// Trigger ("" or "manual") means the task only runs when fired explicitly.
type ScheduleConfig struct {
	Trigger      string `toml:"trigger"` // "manual", "cron", "interval", or "watch"
	CronExpr     string `toml:"cron_expr"`
	IntervalSecs int64  `toml:"interval_secs"`
	WatchDir     string `toml:"watch_dir"`
	Overlap      string `toml:"overlap"` // "allow", "skip", "terminate", "queue"
}

// Task is an invocation specification: a directed transfer from a source
// account+path to a target account+path.
type Task struct {
	ID                 string           `toml:"id"`
	SourceAccountID    string           `toml:"source_account_id"`
	SourcePath         string           `toml:"source_path"`
	TargetAccountID    string           `toml:"target_account_id"`
	TargetPath         string           `toml:"target_path"`
	Filters            []string         `toml:"filters"`
	Encryption         EncryptionConfig `toml:"encryption"`
	DiffMode           DiffMode         `toml:"diff_mode"`
	PreserveMetadata   bool             `toml:"preserve_metadata"`
	VerifyIntegrity    bool             `toml:"verify_integrity"`
	Policy             SyncPolicy       `toml:"policy"`
	Schedule           ScheduleConfig   `toml:"schedule"`
}

// Config is the top-level on-disk configuration: accounts and tasks.
type Config struct {
	Accounts []Account `toml:"account"`
	Tasks    []Task    `toml:"task"`
}

// FindAccount returns the account with the given id, or an error if absent.
func (c *Config) FindAccount(id string) (*Account, error) {
	for i := range c.Accounts {
		if c.Accounts[i].ID == id {
			return &c.Accounts[i], nil
		}
	}

	return nil, fmt.Errorf("config: account %q not found", id)
}

// FindTask returns the task with the given id, or an error if absent.
func (c *Config) FindTask(id string) (*Task, error) {
	for i := range c.Tasks {
		if c.Tasks[i].ID == id {
			return &c.Tasks[i], nil
		}
	}

	return nil, fmt.Errorf("config: task %q not found", id)
}
