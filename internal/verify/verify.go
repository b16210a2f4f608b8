// Package verify re-checks a source/target path pair for integrity after a
// sync run, generalized from the teacher's VerifyBaseline/verifyEntry
// (internal/sync/verify.go) from a local-filesystem-against-baseline model to
// a generic source-provider-against-target-provider model.
package verify

import (
	"context"
	"fmt"

	"github.com/syncforge/syncengine/internal/provider"
	"github.com/syncforge/syncengine/internal/walker"
)

// Status is the per-path verification outcome.
type Status string

// Verification statuses, named after the teacher's VerifyResult constants.
const (
	StatusOK           Status = "ok"
	StatusMissing      Status = "missing"
	StatusHashMismatch Status = "hash_mismatch"
	StatusSizeMismatch Status = "size_mismatch"
	StatusError        Status = "error"
)

// Mismatch is one path that failed verification.
type Mismatch struct {
	Path     string
	Status   Status
	Expected string
	Actual   string
}

// Result is the outcome of one Verify call (spec §4.10).
type Result struct {
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	Mismatches []Mismatch
	Errors    []error
}

// Verifier compares a source and target provider path by path.
type Verifier struct {
	Source provider.StorageProvider
	Target provider.StorageProvider

	// Concurrency bounds the walk's fan-out; zero uses the walker default.
	Concurrency int
}

// New returns a Verifier for the given source/target pair.
func New(source, target provider.StorageProvider, concurrency int) *Verifier {
	return &Verifier{Source: source, Target: target, Concurrency: concurrency}
}

// Verify walks root on the source and checks every file against the target:
// a path absent from the target is Missing; otherwise hashes are compared
// if both sides report one, else sizes. Directories are not counted or
// compared. There is no partial-scan mode: every file under root is checked.
func (v *Verifier) Verify(ctx context.Context, root string) (Result, error) {
	entries, err := walker.Walk(ctx, v.Source, root, walker.Options{Concurrency: v.Concurrency}, nil)
	if err != nil {
		return Result{}, fmt.Errorf("verify: walk source: %w", err)
	}

	var result Result

	for _, e := range entries {
		if ctx.Err() != nil {
			return result, fmt.Errorf("verify: cancelled: %w", ctx.Err())
		}

		if e.IsDir {
			continue
		}

		result.Total++

		m, err := v.verifyOne(ctx, e.Metadata)
		if err != nil {
			result.Errors = append(result.Errors, err)
			result.Failed++

			continue
		}

		if m == nil {
			result.Passed++
			continue
		}

		result.Failed++
		result.Mismatches = append(result.Mismatches, *m)
	}

	return result, nil
}

// verifyOne compares one source entry against the target. A nil Mismatch
// means the path passed.
func (v *Verifier) verifyOne(ctx context.Context, src provider.Metadata) (*Mismatch, error) {
	tgt, err := v.Target.Stat(ctx, src.Path)
	if err != nil {
		if provider.IsNotFound(err) {
			return &Mismatch{Path: src.Path, Status: StatusMissing, Expected: src.Hash}, nil
		}

		return nil, fmt.Errorf("verify: stat %s: %w", src.Path, err)
	}

	if src.Hash != "" && tgt.Hash != "" {
		if src.Hash != tgt.Hash {
			return &Mismatch{Path: src.Path, Status: StatusHashMismatch, Expected: src.Hash, Actual: tgt.Hash}, nil
		}

		return nil, nil
	}

	if src.Size != tgt.Size {
		return &Mismatch{
			Path: src.Path, Status: StatusSizeMismatch,
			Expected: fmt.Sprintf("%d", src.Size), Actual: fmt.Sprintf("%d", tgt.Size),
		}, nil
	}

	return nil, nil
}
