package diffengine

import "github.com/syncforge/syncengine/internal/provider"

// detectConflicts implements spec §4.4 step 3: any path appearing in more
// than one action, or with a {Upload, Delete} or {Upload, Update}
// combination, becomes a single Conflict diff. Type-mismatch conflicts from
// classifyBothSides are already ActionConflict and pass through untouched.
func detectConflicts(diffs []FileDiff) []FileDiff {
	byPath := make(map[string][]int)

	for i, d := range diffs {
		byPath[d.Path] = append(byPath[d.Path], i)
	}

	conflictIdx := make(map[int]bool)
	var extra []FileDiff

	for path, idxs := range byPath {
		if len(idxs) < 2 {
			continue
		}

		for _, i := range idxs {
			conflictIdx[i] = true
		}

		extra = append(extra, FileDiff{
			Type: ActionConflict,
			Path: path,
			Source: firstSource(diffs, idxs),
			Target: firstTarget(diffs, idxs),
			Tags:   []string{"duplicate_action"},
		})
	}

	if len(extra) == 0 {
		return diffs
	}

	out := make([]FileDiff, 0, len(diffs))

	for i, d := range diffs {
		if conflictIdx[i] {
			continue
		}

		out = append(out, d)
	}

	return append(out, extra...)
}

func firstSource(diffs []FileDiff, idxs []int) *provider.Metadata {
	for _, i := range idxs {
		if diffs[i].Source != nil {
			return diffs[i].Source
		}
	}

	return nil
}

func firstTarget(diffs []FileDiff, idxs []int) *provider.Metadata {
	for _, i := range idxs {
		if diffs[i].Target != nil {
			return diffs[i].Target
		}
	}

	return nil
}
