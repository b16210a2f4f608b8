package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/syncforge/syncengine/internal/cryptostage"
	"github.com/syncforge/syncengine/internal/diffengine"
	"github.com/syncforge/syncengine/internal/provider"
	"github.com/syncforge/syncengine/internal/resume"
)

// dispatch routes one FileDiff to the matching handler, mirroring the
// teacher's WorkerPool.dispatchAction switch (worker.go).
func (e *Executor) dispatch(ctx context.Context, d diffengine.FileDiff) Outcome {
	switch d.Type {
	case diffengine.ActionCreateDir:
		return e.executeCreateDir(ctx, d)
	case diffengine.ActionUpload, diffengine.ActionDownload, diffengine.ActionUpdate:
		return e.executeTransfer(ctx, d)
	case diffengine.ActionDelete:
		return e.executeDelete(ctx, d)
	case diffengine.ActionMove:
		return e.executeMove(ctx, d)
	case diffengine.ActionConflict:
		return e.executeConflict(d)
	default:
		return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeSkipped}
	}
}

func (e *Executor) executeCreateDir(ctx context.Context, d diffengine.FileDiff) Outcome {
	// Wait for any pending ancestor CreateDir to finish before registering
	// and creating this one — a descendant dispatched out of order must not
	// race its own ancestor's Mkdir (spec §4.7 step 1).
	e.dirs.WaitUntilReady(d.Path)

	e.dirs.BeginDir(d.Path)
	defer e.dirs.FinishDir(d.Path)

	err := e.withRetry(ctx, func(ctx context.Context) error {
		if err := e.acquireTokens(ctx, 1); err != nil {
			return err
		}

		return ensureDirChain(ctx, e.cfg.Target, d.Path)
	})

	if err != nil {
		return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeFailed, Err: err}
	}

	return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeSuccess}
}

// executeTransfer implements spec §4.7 step 4: stream source to a temp
// file, optionally encrypt, ensure the target's parent exists, upload, mark
// the Resume Store record completed.
func (e *Executor) executeTransfer(ctx context.Context, d diffengine.FileDiff) Outcome {
	e.dirs.WaitUntilReady(d.Path)

	if d.Source == nil {
		return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeFailed, Err: fmt.Errorf("executor: %s: no source metadata", d.Path)}
	}

	record, found, err := e.cfg.Store.Get(e.cfg.TaskID, d.Path)
	if err == nil && found && record.Status == resume.StatusCompleted && record.Matches(d.Source.ModTime.Unix(), d.Source.Size) {
		return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeSkipped}
	}

	e.cfg.Store.Upsert(resume.Record{
		TaskID: e.cfg.TaskID, Path: d.Path, Status: resume.StatusInProgress,
		LastModified: d.Source.ModTime.Unix(), Size: d.Source.Size,
	})

	var bytesMoved int64
	var encrypted bool

	retryErr := e.withRetry(ctx, func(ctx context.Context) error {
		n, enc, err := e.transferOnce(ctx, d)
		bytesMoved = n
		encrypted = enc

		return err
	})

	if retryErr != nil {
		e.cfg.Store.Upsert(resume.Record{
			TaskID: e.cfg.TaskID, Path: d.Path, Status: resume.StatusFailed,
			LastModified: d.Source.ModTime.Unix(), Size: d.Source.Size,
		})

		return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeFailed, Err: retryErr}
	}

	e.cfg.Store.Upsert(resume.Record{
		TaskID: e.cfg.TaskID, Path: d.Path, Status: resume.StatusCompleted,
		LastModified: d.Source.ModTime.Unix(), Size: d.Source.Size,
	})

	return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeSuccess, BytesMoved: bytesMoved, Encrypted: encrypted}
}

// sourcePath resolves the path to read from on the source provider. Most
// actions share a single path on both sides; a Move fallback copies content
// from its PriorPath to its new Path.
func sourcePath(d diffengine.FileDiff) string {
	if d.PriorPath != "" {
		return d.PriorPath
	}

	return d.Path
}

func (e *Executor) transferOnce(ctx context.Context, d diffengine.FileDiff) (int64, bool, error) {
	if err := e.acquireTokens(ctx, 1); err != nil {
		return 0, false, err
	}

	src, err := e.cfg.Source.Download(ctx, sourcePath(d))
	if err != nil {
		return 0, false, err
	}
	defer src.Close()

	tmp, cleanup, err := scopedTempFile("", "syncengine-xfer-*")
	if err != nil {
		return 0, false, err
	}
	defer cleanup()

	n, err := io.Copy(tmp, src)
	if err != nil {
		return 0, false, fmt.Errorf("executor: stream %s: %w", d.Path, err)
	}

	var uploadReader io.Reader
	encrypted := false

	if e.cfg.Encryption != nil && e.cfg.CryptoStage != nil {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return 0, false, fmt.Errorf("executor: rewind %s: %w", d.Path, err)
		}

		payload, _, err := e.cfg.CryptoStage.EncryptFile(d.Path, tmp, *e.cfg.Encryption)
		if err != nil {
			return 0, false, fmt.Errorf("executor: encrypt %s: %w", d.Path, err)
		}

		uploadReader = bytes.NewReader(payload)
		n = int64(len(payload))
		encrypted = true
	} else {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return 0, false, fmt.Errorf("executor: rewind %s: %w", d.Path, err)
		}

		uploadReader = tmp
	}

	if err := ensureParentDirs(ctx, e.cfg.Target, d.Path); err != nil {
		return 0, false, err
	}

	if err := e.acquireTokens(ctx, 1); err != nil {
		return 0, false, err
	}

	modTime := time.Time{}
	if e.cfg.PreserveMetadata {
		modTime = d.Source.ModTime
	}

	if _, err := e.cfg.Target.Upload(ctx, d.Path, uploadReader, n, modTime); err != nil {
		return 0, false, err
	}

	return n, encrypted, nil
}

func (e *Executor) executeDelete(ctx context.Context, d diffengine.FileDiff) Outcome {
	err := e.withRetry(ctx, func(ctx context.Context) error {
		if err := e.acquireTokens(ctx, 1); err != nil {
			return err
		}

		err := e.cfg.Target.Delete(ctx, d.Path, true)
		if provider.IsNotFound(err) {
			return nil // idempotent: NotFound is treated as success (spec §4.7 step 5)
		}

		return err
	})

	if err != nil {
		return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeFailed, Err: err}
	}

	return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeSuccess}
}

func (e *Executor) executeMove(ctx context.Context, d diffengine.FileDiff) Outcome {
	err := e.withRetry(ctx, func(ctx context.Context) error {
		if err := e.acquireTokens(ctx, 1); err != nil {
			return err
		}

		err := e.cfg.Target.Move(ctx, d.PriorPath, d.Path)
		if err == nil {
			return nil
		}

		if !provider.IsNotImplemented(err) {
			return err
		}

		// Backend does not support a native rename: fall back to
		// upload-then-delete with the same resume semantics (spec §4.7 step 7).
		return e.moveFallback(ctx, d)
	})

	if err != nil {
		return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeFailed, Err: err}
	}

	return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeSuccess}
}

func (e *Executor) moveFallback(ctx context.Context, d diffengine.FileDiff) error {
	uploadDiff := d
	uploadDiff.Type = diffengine.ActionUpload

	outcome := e.executeTransfer(ctx, uploadDiff)
	if outcome.Status != OutcomeSuccess && outcome.Status != OutcomeSkipped {
		return outcome.Err
	}

	return e.cfg.Target.Delete(ctx, d.PriorPath, false)
}

func (e *Executor) executeConflict(d diffengine.FileDiff) Outcome {
	return Outcome{Path: d.Path, Type: d.Type, Status: OutcomeConflict}
}

// acquireTokens acquires one request token from the source limiter, then the
// target limiter, in that fixed order — deadlock-free because the two are
// distinct resources (spec §4.7 step 3).
func (e *Executor) acquireTokens(ctx context.Context, n int) error {
	if e.cfg.SourceLimiters != nil && e.cfg.SourceLimiters.Requests != nil {
		if err := e.cfg.SourceLimiters.Requests.Acquire(ctx, n); err != nil {
			return err
		}
	}

	if e.cfg.TargetLimiters != nil && e.cfg.TargetLimiters.Requests != nil {
		if err := e.cfg.TargetLimiters.Requests.Acquire(ctx, n); err != nil {
			return err
		}
	}

	return nil
}

// ensureParentDirs walks filePath's ancestor chain and creates every missing
// level, shallowest first, since Mkdir does not implicitly create
// intermediate ancestors (spec §4.1, §4.7 step 4c).
func ensureParentDirs(ctx context.Context, p provider.StorageProvider, filePath string) error {
	dir := path.Dir(filePath)
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}

	return ensureDirChain(ctx, p, dir)
}

// ensureDirChain creates dir and every missing ancestor above it, shallowest
// first, via an idempotent Mkdir chain (spec §4.7 step 4c, step 6).
func ensureDirChain(ctx context.Context, p provider.StorageProvider, dir string) error {
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}

	var chain []string
	for d := dir; d != "." && d != "/" && d != ""; d = path.Dir(d) {
		chain = append(chain, d)
	}

	for i := len(chain) - 1; i >= 0; i-- {
		if err := p.Mkdir(ctx, chain[i]); err != nil {
			return fmt.Errorf("executor: mkdir %s: %w", chain[i], err)
		}
	}

	return nil
}
