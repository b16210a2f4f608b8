package diffengine

import (
	"math"
	"time"

	"github.com/syncforge/syncengine/internal/provider"
)

// Diff is a pure decision function — no I/O — that reconciles a source map
// and a target map into an ordered plan, generalized from the teacher's
// three-way Planner.Plan (planner.go) down to a one-directional two-map
// comparison with no baseline.
func Diff(source, target map[string]provider.Metadata, opts Options) Result {
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}

	paths := unionPaths(source, target)

	var diffs []FileDiff

	for _, p := range paths {
		s, inSource := source[p]
		t, inTarget := target[p]

		diffs = append(diffs, classifyPath(p, s, inSource, t, inTarget, opts)...)
	}

	if opts.DetectMoves {
		diffs = detectMoves(diffs, opts)
	}

	diffs = detectConflicts(diffs)
	diffs = order(diffs)

	return summarize(diffs)
}

// classifyPath implements spec §4.4 step 1 for a single path.
func classifyPath(p string, s provider.Metadata, inSource bool, t provider.Metadata, inTarget bool, opts Options) []FileDiff {
	switch {
	case inSource && !inTarget:
		if s.IsDir {
			return []FileDiff{{Type: ActionCreateDir, Path: p, Source: metaPtr(s)}}
		}

		return []FileDiff{{Type: ActionUpload, Path: p, Source: metaPtr(s), SizeDelta: s.Size}}

	case !inSource && inTarget:
		if opts.DeleteOrphans {
			return []FileDiff{{Type: ActionDelete, Path: p, Target: metaPtr(t), SizeDelta: -t.Size}}
		}

		return []FileDiff{{Type: ActionUnchanged, Path: p, Target: metaPtr(t), Tags: []string{"target_only"}}}

	default:
		return classifyBothSides(p, s, t, opts)
	}
}

func classifyBothSides(p string, s, t provider.Metadata, opts Options) []FileDiff {
	if s.IsDir != t.IsDir {
		return []FileDiff{{Type: ActionConflict, Path: p, Source: metaPtr(s), Target: metaPtr(t), Tags: []string{"type_mismatch"}}}
	}

	if s.IsDir {
		return []FileDiff{{Type: ActionUnchanged, Path: p, Source: metaPtr(s), Target: metaPtr(t)}}
	}

	if !changed(s, t, opts) {
		return []FileDiff{{Type: ActionUnchanged, Path: p, Source: metaPtr(s), Target: metaPtr(t)}}
	}

	if opts.OverwriteExisting {
		return []FileDiff{{Type: ActionUpdate, Path: p, Source: metaPtr(s), Target: metaPtr(t), SizeDelta: s.Size - t.Size}}
	}

	return []FileDiff{{Type: ActionUnchanged, Path: p, Source: metaPtr(s), Target: metaPtr(t), Tags: []string{"skipped_overwrite"}}}
}

// changed applies the change predicate from spec §4.4 step 1.
func changed(s, t provider.Metadata, opts Options) bool {
	if opts.CompareSize && s.Size != t.Size {
		return true
	}

	if opts.CompareMtime && mtimeDiff(s.ModTime, t.ModTime) > mtimeEpsilon {
		return true
	}

	if opts.CompareChecksum && s.Hash != "" && t.Hash != "" && s.Hash != t.Hash {
		return true
	}

	return false
}

func mtimeDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}

	return d
}

func unionPaths(source, target map[string]provider.Metadata) []string {
	seen := make(map[string]struct{}, len(source)+len(target))

	var out []string

	for p := range source {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	for p := range target {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	return out
}

func metaPtr(m provider.Metadata) *provider.Metadata {
	return &m
}

// summarize computes the Result aggregates from a final, ordered diff list.
func summarize(diffs []FileDiff) Result {
	res := Result{
		Diffs:         diffs,
		CountByAction: make(map[ActionType]int),
	}

	const bytesPerSecondHeuristic = 1 << 20 // 1 MiB/s
	const largeFilePenaltyMs = 5000

	var totalBytes int64

	for _, d := range diffs {
		res.CountByAction[d.Type]++

		switch d.Type {
		case ActionUpload, ActionDownload, ActionUpdate:
			if d.Source != nil {
				res.TotalTransferSize += d.Source.Size
				totalBytes += d.Source.Size

				if d.Source.Size >= mediumFileBytes {
					res.EstimatedDurationMs += largeFilePenaltyMs
				}
			}
		case ActionDelete:
			if d.Target != nil {
				res.TotalDeleteSize += d.Target.Size
			}
		}
	}

	res.EstimatedDurationMs += int64(math.Ceil(float64(totalBytes) / float64(bytesPerSecondHeuristic) * 1000))

	return res
}
