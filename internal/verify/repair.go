package verify

import (
	"context"
	"fmt"

	"github.com/syncforge/syncengine/internal/diffengine"
	"github.com/syncforge/syncengine/internal/executor"
	"github.com/syncforge/syncengine/internal/provider"
)

// RepairResult summarizes a repair run over a Result's failed subset.
type RepairResult struct {
	Attempted int
	Outcomes  []executor.Outcome
}

// Repairer builds a synthetic Update plan from a Verifier's failed subset
// and runs it through an Executor (spec §4.10 repair).
type Repairer struct {
	Source provider.StorageProvider
	Exec   *executor.Executor
}

// NewRepairer returns a Repairer reading from source and dispatching through
// exec (already configured with the matching target provider).
func NewRepairer(source provider.StorageProvider, exec *executor.Executor) *Repairer {
	return &Repairer{Source: source, Exec: exec}
}

// Repair re-fetches source metadata for every mismatched path in res and
// executes an Update action for each, skipping paths with status Missing
// (absent from the target; those belong to a fresh Diff/sync, not a repair).
func (r *Repairer) Repair(ctx context.Context, res Result) (RepairResult, error) {
	var diffs []diffengine.FileDiff

	for _, m := range res.Mismatches {
		if m.Status == StatusMissing {
			continue
		}

		meta, err := r.Source.Stat(ctx, m.Path)
		if err != nil {
			return RepairResult{}, fmt.Errorf("repair: stat %s: %w", m.Path, err)
		}

		diffs = append(diffs, diffengine.FileDiff{
			Type:   diffengine.ActionUpdate,
			Path:   m.Path,
			Source: &meta,
		})
	}

	outcomes, err := r.Exec.Run(ctx, diffs)
	if err != nil {
		return RepairResult{Attempted: len(diffs), Outcomes: outcomes}, err
	}

	return RepairResult{Attempted: len(diffs), Outcomes: outcomes}, nil
}
