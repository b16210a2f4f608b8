// Package report aggregates per-file sync outcomes into a terminal
// SyncReport, mirroring the teacher's WorkerPool result-channel pattern
// (internal/sync/worker.go) generalized from a single success/fail bool
// into the richer per-file status the spec requires.
package report

import "time"

// Status is the terminal state of one file-level action.
type Status string

// File-level statuses, matching executor.OutcomeStatus one-to-one.
const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFailed         Status = "failed"
	StatusSkipped        Status = "skipped"
	StatusConflict       Status = "conflict"
	StatusCancelled      Status = "cancelled"
)

// TaskStatus is the terminal state of an entire sync run.
type TaskStatus string

// Task statuses (spec §4.9).
const (
	TaskSuccess        TaskStatus = "success"
	TaskPartialSuccess TaskStatus = "partial_success"
	TaskFailed         TaskStatus = "failed"
	TaskCancelled      TaskStatus = "cancelled"
)

// FileSyncResult is one event fed into the Aggregator, produced from an
// executor.Outcome.
type FileSyncResult struct {
	Path       string
	Operation  string // "upload", "delete", "move", "create_dir", "conflict", ...
	Status     Status
	Err        error
	Retries    int
	Bytes      int64
	Encrypted  bool
	Verified   bool
	VerifyFail bool
}

// SpeedSample is one throughput observation (bytes transferred in a window).
// The Aggregator does not collect samples: it sets only
// SyncReport.AvgBytesPerSec, and MinBytesPerSec/MaxBytesPerSec stay zero.
type SpeedSample struct {
	BytesPerSec float64
}

// SyncReport is the finalized summary of one sync run, persisted one row
// per run in the sync_reports table.
type SyncReport struct {
	TaskID     string
	CycleID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration

	Status TaskStatus

	TotalFiles        int
	FilesSynced       int
	FilesFailed       int
	FilesSkipped      int
	Conflicts         int
	TotalBytes        int64
	TransferredBytes  int64
	TotalRetries      int
	EncryptedFiles    int
	VerifiedFiles     int
	VerificationFailed int

	ByOperation map[string]int
	ByExtension map[string]int

	AvgBytesPerSec float64
	MinBytesPerSec float64
	MaxBytesPerSec float64

	Errors []ReportError
}

// ReportError is one flattened per-file failure, carrying a stable error
// code per kind so callers don't need to inspect Go error types.
type ReportError struct {
	Path string
	Code string
	Msg  string
}
