package report

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"
)

// resultBufferSize is the bounded channel capacity between executor workers
// (many producers) and the aggregator's single collector goroutine, mirroring
// the teacher's WorkerPool.results sizing discipline (worker.go).
const resultBufferSize = 4096

// Aggregator is the single writer over a task's running counters. Many
// executor workers call Submit concurrently; one collector goroutine (Run)
// drains the channel and folds each event into the report under mu, the
// same mutex MarkCancelled and Finish take.
type Aggregator struct {
	taskID    string
	cycleID   string
	startedAt time.Time

	events chan FileSyncResult
	done   chan struct{}

	mu        sync.Mutex
	report    SyncReport
	cancelled bool
}

// NewAggregator returns an Aggregator ready for Run to collect events for
// one run of taskID/cycleID.
func NewAggregator(taskID, cycleID string) *Aggregator {
	now := startedAtNow()

	return &Aggregator{
		taskID:    taskID,
		cycleID:   cycleID,
		startedAt: now,
		events:    make(chan FileSyncResult, resultBufferSize),
		done:      make(chan struct{}),
		report: SyncReport{
			TaskID:      taskID,
			CycleID:     cycleID,
			StartedAt:   now,
			ByOperation: make(map[string]int),
			ByExtension: make(map[string]int),
		},
	}
}

// startedAtNow exists only so a future deterministic-clock override point
// has a single call site; it is not itself overridden today.
func startedAtNow() time.Time { return time.Now() }

// Submit enqueues one file outcome, blocking if the channel is full or ctx
// is done (spec §5: "every channel send/receive to the report aggregator"
// is a suspension point).
func (a *Aggregator) Submit(ctx context.Context, r FileSyncResult) error {
	select {
	case a.events <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarkCancelled records that the run's cancellation signal fired. Safe to
// call concurrently with Submit.
func (a *Aggregator) MarkCancelled() {
	a.mu.Lock()
	a.cancelled = true
	a.mu.Unlock()
}

// Run drains events until the channel is closed, folding each into the
// running counters. Call Close to signal producers are done, then Run
// returns. Run is meant to execute in its own goroutine; call Wait (or just
// let Run return) before reading Finish's result.
func (a *Aggregator) Run() {
	for r := range a.events {
		a.fold(r)
	}

	close(a.done)
}

// Close signals no more events will be submitted. Must be called exactly
// once, after all producers have stopped.
func (a *Aggregator) Close() {
	close(a.events)
}

// Wait blocks until Run has drained every event and returned.
func (a *Aggregator) Wait() {
	<-a.done
}

func (a *Aggregator) fold(r FileSyncResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rep := &a.report

	rep.TotalFiles++
	rep.TotalRetries += r.Retries
	rep.TotalBytes += r.Bytes
	rep.ByOperation[r.Operation]++

	if ext := strings.TrimPrefix(path.Ext(r.Path), "."); ext != "" {
		rep.ByExtension[ext]++
	}

	switch r.Status {
	case StatusSuccess, StatusPartialSuccess:
		rep.FilesSynced++
		rep.TransferredBytes += r.Bytes
	case StatusFailed:
		rep.FilesFailed++

		if r.Err != nil {
			rep.Errors = append(rep.Errors, ReportError{Path: r.Path, Code: errorCode(r.Err), Msg: r.Err.Error()})
		}
	case StatusSkipped:
		rep.FilesSkipped++
	case StatusConflict:
		rep.Conflicts++
	}

	if r.Encrypted {
		rep.EncryptedFiles++
	}

	if r.Verified {
		rep.VerifiedFiles++

		if r.VerifyFail {
			rep.VerificationFailed++
		}
	}
}

// Finish computes duration, the average transfer speed, and the terminal
// status, and returns the final report. MinBytesPerSec and MaxBytesPerSec
// are not computed and stay zero. Call only after Wait returns.
func (a *Aggregator) Finish() SyncReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	rep := a.report
	rep.FinishedAt = time.Now()
	rep.Duration = rep.FinishedAt.Sub(rep.StartedAt)

	if rep.Duration > 0 {
		rep.AvgBytesPerSec = float64(rep.TransferredBytes) / rep.Duration.Seconds()
	}

	rep.Status = deriveStatus(rep, a.cancelled)

	return rep
}

// deriveStatus implements the spec §4.9 terminal status table exactly,
// including Scenario 3's conflict-only case: a plan with conflicts but no
// other synced or failed file is Success with conflicts counted, not
// PartialSuccess.
func deriveStatus(rep SyncReport, cancelled bool) TaskStatus {
	switch {
	case cancelled:
		return TaskCancelled
	case rep.FilesSynced == 0 && rep.FilesFailed > 0:
		return TaskFailed
	case rep.FilesSynced > 0 && (rep.FilesFailed > 0 || rep.Conflicts > 0):
		return TaskPartialSuccess
	case rep.FilesFailed == 0 && rep.Conflicts == 0:
		return TaskSuccess
	default:
		// FilesSynced == 0, FilesFailed == 0, Conflicts > 0: nothing else
		// ran or failed, so the conflicts alone don't demote the status.
		return TaskSuccess
	}
}

// errorCode maps an error to a stable code string for the flattened error
// list (spec §7 "stable error code per kind"), looking through wrapping.
// Falls back to "unknown" for errors outside the provider taxonomy.
func errorCode(err error) string {
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return "unknown"
}

// coder is implemented by errors that can report a stable taxonomy code.
type coder interface {
	Code() string
}
