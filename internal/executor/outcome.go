package executor

import "github.com/syncforge/syncengine/internal/diffengine"

// OutcomeStatus is the terminal state of one executed action, feeding the
// Report Aggregator's per-file FileSyncResult events (spec §4.9).
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomeSuccess     OutcomeStatus = "success"
	OutcomePartial     OutcomeStatus = "partial_success"
	OutcomeFailed      OutcomeStatus = "failed"
	OutcomeSkipped     OutcomeStatus = "skipped"
	OutcomeConflict    OutcomeStatus = "conflict"
	OutcomeCancelled   OutcomeStatus = "cancelled"
)

// Outcome reports what happened when dispatching one FileDiff.
type Outcome struct {
	Path      string
	Type      diffengine.ActionType
	Status    OutcomeStatus
	Err       error
	Retries   int
	BytesMoved int64
	Encrypted bool
	Verified  bool
}
