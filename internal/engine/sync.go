package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/syncforge/syncengine/internal/executor"
	"github.com/syncforge/syncengine/internal/report"
)

// Sync runs task to completion and returns its terminal report, the
// engine's sync API (spec §6).
func (e *Engine) Sync(ctx context.Context, taskID string) (report.SyncReport, error) {
	return e.SyncWithProgress(ctx, taskID, nil)
}

// SyncWithProgress runs task to completion, invoking progress once per
// completed file action, the engine's sync_with_progress API (spec §6).
func (e *Engine) SyncWithProgress(ctx context.Context, taskID string, progress ProgressFunc) (report.SyncReport, error) {
	task, source, target, err := e.task(taskID)
	if err != nil {
		return report.SyncReport{}, err
	}

	walkSrc, walkTgt, err := e.walkingPair(ctx, source, target)
	if err != nil {
		return report.SyncReport{}, err
	}

	plan, err := e.diff(ctx, task, walkSrc, walkTgt)
	if err != nil {
		return report.SyncReport{}, err
	}

	src, tgt, srcLimiters, tgtLimiters, err := e.resolvePair(ctx, source, target)
	if err != nil {
		return report.SyncReport{}, err
	}

	cycleID := newCycleID()

	agg := report.NewAggregator(taskID, cycleID)
	go agg.Run()

	execCfg := executor.Config{
		TaskID:           taskID,
		Source:           src,
		Target:           tgt,
		SourceLimiters:   srcLimiters,
		TargetLimiters:   tgtLimiters,
		Encryption:       encryptionBinding(task.Encryption),
		CryptoStage:      e.cryptoStage(task),
		PreserveMetadata: task.PreserveMetadata,
		Store:            e.cfg.Store,
		Logger:           e.logger,
	}

	exec := executor.New(execCfg)

	outcomes, runErr := exec.Run(ctx, plan.Diffs)

	for _, o := range outcomes {
		result := toFileSyncResult(o)

		if progress != nil {
			progress(result)
		}

		if subErr := agg.Submit(ctx, result); subErr != nil {
			agg.MarkCancelled()
			break
		}
	}

	if runErr != nil && executorCancelled(runErr) {
		agg.MarkCancelled()
	}

	agg.Close()
	agg.Wait()

	rep := agg.Finish()

	if e.cfg.Persister != nil {
		if _, saveErr := e.cfg.Persister.Save(ctx, rep); saveErr != nil {
			e.logger.Warn("engine: persisting sync report failed", "task", taskID, "error", saveErr)
		}
	}

	if runErr != nil && !executorCancelled(runErr) {
		return rep, fmt.Errorf("engine: task %s: %w", taskID, runErr)
	}

	return rep, nil
}

// toFileSyncResult translates one executor Outcome into the Report
// Aggregator's event type.
func toFileSyncResult(o executor.Outcome) report.FileSyncResult {
	return report.FileSyncResult{
		Path:      o.Path,
		Operation: o.Type.String(),
		Status:    report.Status(o.Status),
		Err:       o.Err,
		Retries:   o.Retries,
		Bytes:     o.BytesMoved,
		Encrypted: o.Encrypted,
		Verified:  o.Verified,
	}
}

// executorCancelled reports whether err stems from context cancellation
// rather than a fatal provider/config failure.
func executorCancelled(err error) bool {
	return strings.Contains(err.Error(), context.Canceled.Error()) ||
		strings.Contains(err.Error(), context.DeadlineExceeded.Error())
}
